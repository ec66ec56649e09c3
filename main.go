package main

import "github.com/naka-gawa/pages-portfolio/cmd"

func main() {
	cmd.Execute()
}
