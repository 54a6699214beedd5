package sequencer

import "errors"

var ErrBulkInProgress = errors.New("bulk watermark generation already running")
