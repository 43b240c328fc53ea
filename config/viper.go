/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	connerr "github.com/go-conmgr/conmgr/errors"
)

// FromViper decodes the sub-tree at key into a Config, applying Default()
// first so that unset fields keep their documented defaults, then calling
// Validate(). key may be empty to decode from the root of v.
func FromViper(v *viper.Viper, key string) (*Config, error) {
	if v == nil {
		return nil, connerr.New(uint16(connerr.InvalidArgument), "nil viper instance")
	}

	cfg := Default()

	decode := func(target interface{}) error {
		if len(key) == 0 {
			return v.Unmarshal(target, func(c *mapstructure.DecoderConfig) {
				c.ErrorUnused = false
				c.ZeroFields = false
			})
		}
		return v.UnmarshalKey(key, target, func(c *mapstructure.DecoderConfig) {
			c.ErrorUnused = false
			c.ZeroFields = false
		})
	}

	if len(key) > 0 && !v.IsSet(key) {
		// nothing configured: keep Default() untouched.
	} else if err := decode(cfg); err != nil {
		return nil, connerr.New(uint16(connerr.InvalidArgument), fmt.Sprintf("decoding conmgr config: %s", err.Error()))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
