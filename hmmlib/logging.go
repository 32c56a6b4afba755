package hmmlib

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// parFormatter writes bare messages, for matrices in the parameter log.
type parFormatter struct{}

func (parFormatter) Format(e *logrus.Entry) ([]byte, error) {
	return append([]byte(e.Message), '\n'), nil
}

// Logs holds the message and parameter loggers of an estimation, together
// with the files they write to.
type Logs struct {
	Msg *logrus.Logger
	Par *logrus.Logger

	files []*os.File
}

// SetLogger creates <logname>_msg.log for progress messages and
// <logname>_par.log for parameter summaries, and returns a logger for each.
// With debug set the message logger records every EM iteration.  The caller
// must Close the result.
func SetLogger(logname string, debug bool) (*Logs, error) {

	msgfid, err := os.Create(logname + "_msg.log")
	if err != nil {
		return nil, errors.Wrap(err, "create message log")
	}

	parfid, err := os.Create(logname + "_par.log")
	if err != nil {
		_ = msgfid.Close()
		return nil, errors.Wrap(err, "create parameter log")
	}

	msglogger := logrus.New()
	msglogger.SetOutput(msgfid)
	msglogger.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	if debug {
		msglogger.SetLevel(logrus.DebugLevel)
	}

	parlogger := logrus.New()
	parlogger.SetOutput(parfid)
	parlogger.SetFormatter(parFormatter{})

	return &Logs{
		Msg:   msglogger,
		Par:   parlogger,
		files: []*os.File{msgfid, parfid},
	}, nil
}

// Close closes both log files and returns the first error.  Later calls do
// nothing.
func (lg *Logs) Close() error {

	var first error
	for _, fid := range lg.files {
		if err := fid.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "close %s", fid.Name())
		}
	}
	lg.files = nil

	return first
}
