// Copyright (C) The pnps Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package main

import "github.com/viralseq/pnps"

func main() {
	pnps.Main()
}
