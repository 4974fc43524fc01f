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

package motion

import "fmt"

type Config struct {
	Disabled         bool `yaml:"disabled"`
	DeltaThresh      int  `yaml:"delta-thresh"`
	BlurKernel       int  `yaml:"blur-kernel"`
	DilateIterations int  `yaml:"dilate-iterations"`
}

func DefaultConfig() Config {
	return Config{
		DeltaThresh:      20,
		BlurKernel:       5,
		DilateIterations: 3,
	}
}

func (conf *Config) Validate() error {
	if conf.DeltaThresh < 1 || conf.DeltaThresh > 255 {
		return fmt.Errorf("delta-thresh must be between 1 and 255")
	}
	if conf.BlurKernel < 1 || conf.BlurKernel%2 == 0 {
		return fmt.Errorf("blur-kernel must be a positive odd number")
	}
	if conf.DilateIterations < 0 {
		return fmt.Errorf("dilate-iterations must not be negative")
	}
	return nil
}
