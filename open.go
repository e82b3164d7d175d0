// Copyright (C) The pnps Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package pnps

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/klauspost/pgzip"
	log "github.com/sirupsen/logrus"
	"github.com/viant/afs"
)

var (
	storageURLRe = regexp.MustCompile(`^[a-z][a-z0-9+.-]*://`)
	remoteFS     = afs.New()
)

// zopen returns a reader for the given file, fetching storage URLs
// (s3://, gs://, mem://, file://...) through afs, and transparently
// decompressing the input if fnm ends with ".gz".
func zopen(fnm string) (io.ReadCloser, error) {
	f, err := open(fnm)
	if err != nil || !strings.HasSuffix(fnm, ".gz") {
		return f, err
	}
	rdr, err := pgzip.NewReader(bufio.NewReaderSize(f, 4*1024*1024))
	if err != nil {
		f.Close()
		return nil, err
	}
	return gzipr{rdr, f}, nil
}

// gzipr wraps a ReadCloser and a Closer, presenting a single Close()
// method that closes both wrapped objects.
type gzipr struct {
	io.ReadCloser
	io.Closer
}

func (gr gzipr) Close() error {
	e1 := gr.ReadCloser.Close()
	e2 := gr.Closer.Close()
	if e1 != nil {
		return e1
	}
	return e2
}

// open returns a reader for a local path or a storage URL. A missing
// input is reported as an error wrapping fs.ErrNotExist regardless of
// where it lives.
func open(fnm string) (io.ReadCloser, error) {
	if !storageURLRe.MatchString(fnm) {
		return os.Open(fnm)
	}
	ctx := context.Background()
	ok, err := remoteFS.Exists(ctx, fnm)
	if err != nil {
		return nil, err
	} else if !ok {
		return nil, &fs.PathError{Op: "open", Path: fnm, Err: fs.ErrNotExist}
	}
	log.Debugf("reading %s using afs", fnm)
	buf, err := remoteFS.DownloadWithURL(ctx, fnm)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(buf)), nil
}

// createOutput opens fnm for writing, truncating any existing
// content. "-" means stdout.
func createOutput(fnm string, stdout io.Writer) (io.WriteCloser, error) {
	if fnm == "-" {
		return nopCloser{stdout}, nil
	}
	return os.OpenFile(fnm, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// sampleID derives a sample label from an input file name: the base
// name without ".gz" and without its final extension.
func sampleID(fnm string) string {
	base := filepath.Base(strings.TrimSuffix(fnm, ".gz"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
