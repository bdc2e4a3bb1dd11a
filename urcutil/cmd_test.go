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
	"reflect"
	"testing"
)

func TestOptionDefaults(t *testing.T) {
	if got := Cfg.GetFloat64("Grid.CellWidth"); got != 1000 {
		t.Errorf("Grid.CellWidth default = %g, want 1000", got)
	}
	if got := Cfg.GetString("Score.OutputDir"); got != "." {
		t.Errorf("Score.OutputDir default = %q, want \".\"", got)
	}
	if Cfg.GetBool("da") || Cfg.GetBool("ds") {
		t.Error("scoring branches should default to disabled")
	}
}

func TestGetStringMapString(t *testing.T) {
	Cfg.Set("testmap", `{"a": "1", "b": "2"}`)
	want := map[string]string{"a": "1", "b": "2"}
	if got := GetStringMapString("testmap", Cfg); !reflect.DeepEqual(got, want) {
		t.Errorf("GetStringMapString = %v, want %v", got, want)
	}
}

func TestGetStringMapFloat64(t *testing.T) {
	Cfg.Set("testthresh", `{"DS_Eo_LG_CID90": "2500"}`)
	got, err := getStringMapFloat64("testthresh", Cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{"DS_Eo_LG_CID90": 2500}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("getStringMapFloat64 = %v, want %v", got, want)
	}

	Cfg.Set("testthresh", `{"DS_Eo_LG_CID90": "not a number"}`)
	if _, err := getStringMapFloat64("testthresh", Cfg); err == nil {
		t.Error("a non-numeric threshold should fail")
	}
}
