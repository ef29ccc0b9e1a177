// Package logging sets up the daily log file and the working-set stamping
// every record carries.
package logging

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/nellis-lmt/paperload/internal/model"
)

// LogFilePath names the log of one working day, "<app>.1-MAY-24.log". Every
// invocation on that day appends to the same file.
func LogFilePath(logsDir, appName string, day time.Time) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s.%s.log", appName, model.FileDate(day)))
}
