package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Optional CSV log of bandwidth samples.
 *
 * Description:	When sample_log_dir is set, every accepted bandwidth
 *		sample is appended to a daily-named CSV file in that
 *		directory.  Useful for calibrating max_gbps against
 *		what a link actually does over a day.
 *
 *		One file per day; the file stays open across writes
 *		and rolls when the date changes.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lestrrat-go/strftime"
)

type sample_log_s struct {
	dir       string
	open_name string
	fp        *os.File
	w         *csv.Writer
}

func new_sample_log(dir string) *sample_log_s {
	return &sample_log_s{dir: dir}
}

/*-------------------------------------------------------------------
 *
 * Name:        (l) log_sample
 *
 * Purpose:     Append one sample, rolling the file on date change.
 *
 *--------------------------------------------------------------------*/

func (l *sample_log_s) log_sample(now time.Time, rxKbps float64, txKbps float64) {
	if l.dir == "" {
		return
	}

	var day, err = strftime.Format("%Y-%m-%d", now)
	if err != nil {
		return
	}
	var name = filepath.Join(l.dir, "bandwidth-"+day+".csv")

	if name != l.open_name {
		l.close()

		fp, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			logger.Warn("sample log open failed", "file", name, "err", err)
			return
		}

		l.fp = fp
		l.w = csv.NewWriter(fp)
		l.open_name = name

		// Header only on a fresh file.
		if info, err := fp.Stat(); err == nil && info.Size() == 0 {
			l.w.Write([]string{"time", "rx_kbps", "tx_kbps"})
		}
	}

	if l.w == nil {
		return
	}

	l.w.Write([]string{
		now.Format(time.RFC3339Nano),
		strconv.FormatFloat(rxKbps, 'f', 3, 64),
		strconv.FormatFloat(txKbps, 'f', 3, 64),
	})
	l.w.Flush()
}

func (l *sample_log_s) close() {
	if l.w != nil {
		l.w.Flush()
	}
	if l.fp != nil {
		l.fp.Close()
	}
	l.fp = nil
	l.w = nil
	l.open_name = ""
}
