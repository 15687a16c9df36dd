// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"os"

	"github.com/z5labs/mvi/cmd/loginmvi/cmd"
)

func main() {
	err := cmd.Execute(context.Background(), os.Args[1:]...)
	if err != nil {
		os.Exit(1)
	}
}
