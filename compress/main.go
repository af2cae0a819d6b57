package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fumin/pixac"
	"github.com/fumin/pixac/internal/progress"
	"github.com/kr/pretty"
	"github.com/ogier/pflag"
	"github.com/pkg/errors"
)

var (
	numbits = pflag.UintP("numbits", "b", 0, "register width of the arithmetic coder, overrides the configuration")
	config  = pflag.StringP("config", "c", "", "TOML configuration file")
	output  = pflag.StringP("output", "o", "", "output file, standard output if empty")
	verbose = pflag.BoolP("verbose", "v", false, "verbosity")
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] image\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	name := pflag.Arg(0)
	if name == "" {
		pflag.Usage()
		os.Exit(1)
	}

	if err := run(name); err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(name string) error {
	cfg := pixac.DefaultConfig
	if *config != "" {
		var err error
		cfg, err = pixac.LoadConfig(*config)
		if err != nil {
			return errors.Wrap(err, "")
		}
	}
	if *numbits != 0 {
		cfg.NumBits = *numbits
	}
	p := progress.New("Processing:")
	cfg.Progress = p.Func()

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return errors.Wrap(err, "")
		}
		defer f.Close()
		w = f
	}

	stats, err := pixac.Compress(w, name, cfg)
	p.Done()
	if err != nil {
		if *output != "" {
			os.Remove(*output)
		}
		return errors.Wrap(err, "")
	}
	if *verbose {
		log.Printf("%# v", pretty.Formatter(cfg))
		log.Printf("Input: '%s'\tTime: %.2f(s)\tRatio: %.2f", name, stats.Elapsed.Seconds(), stats.Ratio())
	}
	return nil
}
