package logging

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"

	"github.com/sirupsen/logrus"
)

// writerHook отправляет записи лога сразу в несколько writer'ов
// (stdout + файл), не завязываясь на единственный Out у logrus.
type writerHook struct {
	Writer    []io.Writer
	LogLevels []logrus.Level
}

func (hook *writerHook) Fire(entry *logrus.Entry) error {
	line, err := entry.String()
	if err != nil {
		return err
	}
	for _, w := range hook.Writer {
		if _, err := w.Write([]byte(line)); err != nil {
			return err
		}
	}
	return nil
}

func (hook *writerHook) Levels() []logrus.Level {
	return hook.LogLevels
}

var e *logrus.Entry

// Logger — обертка над logrus.Entry, чтобы сервисы не зависели
// от конкретной библиотеки логирования напрямую.
type Logger struct {
	*logrus.Entry
}

// GetLogger возвращает общий настроенный логгер приложения.
func GetLogger() *Logger {
	return &Logger{e}
}

// GetLoggerWithField возвращает логгер с дополнительным полем контекста.
func (l *Logger) GetLoggerWithField(k string, v interface{}) *Logger {
	return &Logger{l.WithField(k, v)}
}

func init() {
	l := logrus.New()
	l.SetReportCaller(true)
	l.Formatter = &logrus.TextFormatter{
		CallerPrettyfier: func(frame *runtime.Frame) (function string, file string) {
			filename := path.Base(frame.File)
			return fmt.Sprintf("%s()", frame.Function), fmt.Sprintf("%s:%d", filename, frame.Line)
		},
		DisableColors: false,
		FullTimestamp: true,
	}

	writers := []io.Writer{os.Stdout}
	if err := os.MkdirAll("logs", 0o755); err == nil {
		logFile, err := os.OpenFile("logs/all.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err == nil {
			writers = append(writers, logFile)
		}
	}

	l.SetOutput(io.Discard)

	l.AddHook(&writerHook{
		Writer:    writers,
		LogLevels: logrus.AllLevels,
	})

	l.SetLevel(logrus.TraceLevel)

	e = logrus.NewEntry(l)
}
