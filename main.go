package main

import "github.com/WattMatt/greencalc-sa-sub011/cmd"

func main() {
	cmd.Execute()
}
