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

package throttle

import "fmt"

type Config struct {
	Activate      bool `yaml:"activate"`
	BucketSecs    int  `yaml:"bucket-secs"`
	MinRefillSecs int  `yaml:"min-refill-secs"`
}

func DefaultConfig() Config {
	return Config{
		Activate:      false,
		BucketSecs:    600,
		MinRefillSecs: 1200,
	}
}

func (conf *Config) Validate() error {
	if !conf.Activate {
		return nil
	}
	if conf.BucketSecs <= 0 {
		return fmt.Errorf("bucket-secs must be positive")
	}
	if conf.MinRefillSecs <= 0 {
		return fmt.Errorf("min-refill-secs must be positive")
	}
	return nil
}
