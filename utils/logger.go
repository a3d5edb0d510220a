package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var (
	InfoLog  = slog.Default()
	ErrorLog = slog.Default()
)

// InicializarLogger configura los loggers globales. Si rutaArchivo no es vacía
// el log se escribe en consola y en el archivo.
func InicializarLogger(logLevel string, moduleName string, rutaArchivo string) error {
	level, errNivel := convertirNivel(logLevel)

	var salida io.Writer = os.Stdout
	if rutaArchivo != "" {
		archivo, err := os.OpenFile(rutaArchivo, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
		if err != nil {
			return fmt.Errorf("error al abrir archivo de log %s: %w", rutaArchivo, err)
		}
		salida = io.MultiWriter(os.Stdout, archivo)
	}

	handler := slog.NewTextHandler(salida, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(handler).With("modulo", moduleName)
	slog.SetDefault(logger)

	InfoLog = logger
	ErrorLog = logger

	if errNivel != nil {
		InfoLog.Warn(errNivel.Error())
	}
	return nil
}

func convertirNivel(logLevel string) (slog.Level, error) {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("nivel de log %q desconocido, se usa INFO", logLevel)
	}
}
