// activity-surveil - activity triggered audio and video recording
//  Copyright (C) 2024, Shepherd1226
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// surveil-measure reports the best resolution and frame rate a camera will
// agree to, so the main daemon can be configured to match.
package main

import (
	"fmt"
	"os"

	arg "github.com/alexflint/go-arg"

	"github.com/Shepherd1226/Activity-Surveil/capture"
)

var version = "<not set>"

type Args struct {
	Camera int `arg:"-i,--camera" help:"camera device index to probe"`
}

func (Args) Version() string {
	return version
}

func main() {
	var args Args
	arg.MustParse(&args)

	caps, err := capture.Probe(args.Camera)
	if err != nil {
		fmt.Fprintf(os.Stderr, "probing camera %d: %v\n", args.Camera, err)
		os.Exit(1)
	}

	fmt.Printf("camera %d\n", args.Camera)
	fmt.Printf("  max resolution: %dx%d\n", caps.MaxWidth, caps.MaxHeight)
	fmt.Printf("  max fps:        %d\n", caps.MaxFPS)
}
