package pixac

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config holds the parameters of Compress and Decompress.
type Config struct {
	// NumBits is the register width of the arithmetic coder.
	// The number of pixels times three must stay below 1<<(NumBits-2).
	NumBits uint `toml:"numbits"`

	// Format is the image format Decompress writes, such as "png" or "bmp".
	Format string `toml:"format"`

	// Progress, if not nil, is called as symbols are coded.
	Progress func(done, total int) `toml:"-"`
}

// DefaultConfig is the configuration used by the command line tools when no file is given.
var DefaultConfig = Config{
	NumBits: 32,
	Format:  "png",
}

// LoadConfig reads a TOML configuration file on top of DefaultConfig.
// Unknown keys are rejected.
func LoadConfig(fpath string) (Config, error) {
	cfg := DefaultConfig
	md, err := toml.DecodeFile(fpath, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(err, fpath)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.Errorf("%s: unknown keys %v", fpath, undecoded)
	}
	return cfg, nil
}
