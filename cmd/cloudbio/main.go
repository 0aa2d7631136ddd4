package main

import "github.com/SciLifeLab/cloudbiolinux/internal/cli"

func main() {
	cli.Execute()
}
