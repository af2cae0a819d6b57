package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/fumin/pixac"
	"github.com/fumin/pixac/internal/progress"
	"github.com/fumin/pixac/pixel"
	"github.com/kr/pretty"
	"github.com/ogier/pflag"
	"github.com/pkg/errors"
)

var (
	config  = pflag.StringP("config", "c", "", "TOML configuration file")
	output  = pflag.StringP("output", "o", "", "output image, standard output if empty")
	format  = pflag.StringP("format", "f", "", "output image format, taken from the output extension or the configuration if empty")
	verbose = pflag.BoolP("verbose", "v", false, "verbosity")
)

func main() {
	pflag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	if err := run(pflag.Arg(0)); err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(name string) error {
	start := time.Now()
	cfg := pixac.DefaultConfig
	if *config != "" {
		var err error
		cfg, err = pixac.LoadConfig(*config)
		if err != nil {
			return errors.Wrap(err, "")
		}
	}
	imgFormat, err := pixel.ParseFormat(cfg.Format)
	if *format != "" {
		imgFormat, err = pixel.ParseFormat(*format)
	} else if *output != "" {
		if f, ferr := pixel.FormatFromName(*output); ferr == nil {
			imgFormat, err = f, nil
		}
	}
	if err != nil {
		return errors.Wrap(err, "")
	}
	p := progress.New("Processing:")
	cfg.Progress = p.Func()

	var r io.Reader = os.Stdin
	if name != "" && name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return errors.Wrap(err, "")
		}
		defer f.Close()
		r = f
	}

	img, h, err := pixac.DecompressImage(r, cfg)
	p.Done()
	if err != nil {
		return errors.Wrap(err, "")
	}

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return errors.Wrap(err, "")
		}
		defer f.Close()
		w = f
	}
	if err := pixel.Encode(w, img, imgFormat); err != nil {
		if *output != "" {
			os.Remove(*output)
		}
		return errors.Wrap(err, "")
	}

	if *verbose {
		log.Printf("%# v", pretty.Formatter(h))
		log.Printf("Input: '%s'\tOutput: '%s'\tTime: %.2f(s)", name, *output, time.Since(start).Seconds())
	}
	return nil
}
