/*
Copyright © 2021 the URC authors.
This file is part of URC.

URC is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

URC is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with URC.  If not, see <http://www.gnu.org/licenses/>.
*/

package urcutil

import (
	"encoding/json"
	"fmt"

	"github.com/lnashier/viper"
	"github.com/spf13/cast"
)

// GetStringMapString returns a map of strings from the given
// configuration variable, accounting for the fact that it might be a
// json object if it was set from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) map[string]string {
	i := cfg.Get(varName)
	switch i.(type) {
	case map[string]string:
		return i.(map[string]string)
	case map[string]interface{}:
		return cast.ToStringMapString(i)
	case string:
		b := []byte(i.(string))
		if len(b) == 0 {
			return map[string]string{}
		}
		o := make(map[string]string)
		if err := json.Unmarshal(b, &o); err != nil {
			panic(err)
		}
		return o
	default:
		panic(fmt.Errorf("urc: invalid type for config variable %s: %T", varName, i))
	}
}

// getStringMapFloat64 returns a map of numbers from the given
// configuration variable.
func getStringMapFloat64(varName string, cfg *viper.Viper) (map[string]float64, error) {
	o := make(map[string]float64)
	for k, v := range GetStringMapString(varName, cfg) {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, fmt.Errorf("urc: config variable %s[%s]: %v", varName, k, err)
		}
		o[k] = f
	}
	return o, nil
}
