/*
Copyright © 2021 the VectorEdit authors.
This file is part of VectorEdit.

VectorEdit is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

VectorEdit is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with VectorEdit.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command vectoredit is a command-line interface for replaying edit
// gestures against vector shape files.
package main

import (
	"fmt"
	"os"

	"github.com/spatialkit/vectoredit/editutil"
)

func main() {
	if err := editutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
