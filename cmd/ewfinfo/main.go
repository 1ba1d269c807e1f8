// Copyright 2026 The sleuthgo Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command ewfinfo opens an EWF image read-only and prints its media
// identity, acquisition errors, sessions, and hash values.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/sleuthgo/ewf"
)

var maxOpen = flag.Int("max-open", 0, "maximum segment file handles kept open (0 = unlimited)")

func main() {
	flag.Parse()
	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: ewfinfo [-max-open N] segment-file [segment-file...]")
		os.Exit(2)
	}

	img, err := ewf.Open(paths, ewf.WithMaxOpenHandles(*maxOpen))
	if err != nil {
		color.Red("ewfinfo: open: %v", err)
		os.Exit(1)
	}
	defer img.Close()

	fmt.Printf("Media size:          %s (%d bytes)\n", humanize.Bytes(img.GetMediaSize()), img.GetMediaSize())
	fmt.Printf("Chunk size:          %s\n", humanize.Bytes(uint64(img.GetChunkSize())))
	fmt.Printf("Sectors per chunk:   %d\n", img.GetSectorsPerChunk())
	fmt.Printf("Bytes per sector:    %d\n", img.GetBytesPerSector())
	fmt.Printf("Number of sectors:   %d\n", img.GetNumberOfSectors())

	if n := img.GetNumberOfFileEntries(); n > 0 {
		fmt.Printf("File entries:        %d\n", n)
	}

	if md5, ok := img.GetHashValue("md5"); ok {
		fmt.Printf("MD5:                 %x\n", md5)
	}
	if sha1, ok := img.GetHashValue("sha1"); ok {
		fmt.Printf("SHA1:                %x\n", sha1)
	}

	errCount := img.GetNumberOfAcquiryErrors()
	if errCount > 0 {
		color.Yellow("Acquisition errors:  %d", errCount)
		for i := 0; i < errCount; i++ {
			start, count, err := img.GetAcquiryError(i)
			if err != nil {
				continue
			}
			color.Yellow("  sector %d, count %d", start, count)
		}
	} else {
		fmt.Println("Acquisition errors:  0")
	}

	sessionCount := img.GetNumberOfSessions()
	fmt.Printf("Sessions:            %d\n", sessionCount)
	for i := 0; i < sessionCount; i++ {
		start, count, err := img.GetSession(i)
		if err != nil {
			continue
		}
		fmt.Printf("  session %d: start sector %d, count %d\n", i, start, count)
	}
}
