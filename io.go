/*
 * io.go, part of godock.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 * goDock is currently developed at the Universidad de Santiago de Chile
 * (USACH)
 *
 */

package dock

import (
	"bufio"
	"compress/gzip"
	"io"
	"log"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

//closeChain closes a compression layer and then the file under it.
type closeChain struct {
	io.Reader
	closers []func() error
}

func (c *closeChain) Close() error {
	var err error
	for _, cl := range c.closers {
		if e := cl(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

//zstd.Decoder does not implement io.ReadCloser, as its Close returns
//nothing, hence this little wrap.
func zstdClose(d *zstd.Decoder) func() error {
	return func() error {
		d.Close()
		return nil
	}
}

//OpenInput opens a possibly compressed input file. The compression is
//deduced from the extension: .gz and .zst are supported, anything else
//is read as plain text. A ligand prepared as lig.pdbqt.zst thus needs
//no decompression step before docking.
func OpenInput(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, Error{err.Error(), name, []string{"os.Open", "OpenInput"}, true}
	}
	br := bufio.NewReader(f)
	parts := strings.Split(name, ".")
	switch strings.ToLower(parts[len(parts)-1]) {
	case "gz":
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, Error{"can't read gzip header: " + err.Error(), name, []string{"OpenInput"}, true}
		}
		return &closeChain{gz, []func() error{gz.Close, f.Close}}, nil
	case "zst", "zstd":
		zr, err := zstd.NewReader(br)
		if err != nil {
			f.Close()
			return nil, Error{"can't read zstd header: " + err.Error(), name, []string{"OpenInput"}, true}
		}
		return &closeChain{zr, []func() error{zstdClose(zr), f.Close}}, nil
	default:
		return f, nil
	}
}

type writeCloseChain struct {
	io.Writer
	closers []func() error
}

func (c *writeCloseChain) Close() error {
	var err error
	for _, cl := range c.closers {
		if e := cl(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

//CreateOutput creates an output file, compressing what is written to it
//when the name ends in .gz or .zst. Unknown extensions get a logged
//notice and a plain file.
func CreateOutput(name string) (io.WriteCloser, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, Error{err.Error(), name, []string{"os.Create", "CreateOutput"}, true}
	}
	parts := strings.Split(name, ".")
	ext := strings.ToLower(parts[len(parts)-1])
	switch ext {
	case "gz":
		gz := gzip.NewWriter(f)
		return &writeCloseChain{gz, []func() error{gz.Close, f.Close}}, nil
	case "zst", "zstd":
		zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			f.Close()
			return nil, Error{"can't start zstd stream: " + err.Error(), name, []string{"CreateOutput"}, true}
		}
		return &writeCloseChain{zw, []func() error{zw.Close, f.Close}}, nil
	default:
		if ext != "pdbqt" {
			log.Printf("Extension %s not recognized. %s will be written as plain text", ext, name)
		}
		return f, nil
	}
}
