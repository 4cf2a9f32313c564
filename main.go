/*
Copyright © 2025 changheonshin
*/
package main

import "tidy/cmd"

func main() {
	cmd.Execute()
}
