package main

import (
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/archiveset/internal/alog"
	"github.com/provide-io/archiveset/internal/operators"
	"github.com/provide-io/archiveset/internal/operators/compress"
	"github.com/provide-io/archiveset/internal/operators/subprocess"
)

func newLogger() hclog.Logger {
	level := logLevel
	if level == "" {
		level = alog.LevelFromEnv()
	}
	return alog.New("archiveset", level, os.Stderr)
}

func newTar(logger hclog.Logger) operators.Tar {
	return &subprocess.Tar{Logger: logger}
}

func newEncrypt(logger hclog.Logger) operators.Encrypt {
	return &subprocess.GPG{Logger: logger}
}

func newDecrypt(logger hclog.Logger) operators.Decrypt {
	return &subprocess.GPG{Logger: logger}
}

func newCompress(codec string) (operators.Compress, error) {
	return compress.Get(codec)
}
