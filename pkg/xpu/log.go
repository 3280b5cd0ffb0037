package xpu

import (
	"log"
	"os"
)

// Logger receives the runtime's own diagnostic lines: backend selection
// and CPU fallback decisions. Image load failures are returned as errors,
// not logged. Replace it before calling Initialize to redirect or silence
// this output; it defaults to stderr.
var Logger = log.New(os.Stderr, "xpu: ", log.LstdFlags)
