package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ServidorMonitor expone el estado de un módulo por HTTP
type ServidorMonitor struct {
	IP       string
	Puerto   int
	Nombre   string
	server   *http.Server
	estado   func() any
	Listener net.Listener
}

// NewServidorMonitor crea un nuevo servidor de monitoreo
func NewServidorMonitor(ip string, puerto int, nombre string, estado func() any) *ServidorMonitor {
	s := &ServidorMonitor{
		IP:     ip,
		Puerto: puerto,
		Nombre: nombre,
		estado: estado,
	}
	s.server = &http.Server{Handler: s.Handler()}
	return s
}

// Handler arma el mux con los endpoints del monitor
func (s *ServidorMonitor) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "module": s.Nombre})
	})

	mux.HandleFunc("GET /estado", func(w http.ResponseWriter, r *http.Request) {
		if s.estado == nil {
			http.Error(w, "Estado no disponible", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.estado()); err != nil {
			ErrorLog.Error("Error codificando estado", "error", err)
		}
	})

	return mux
}

// Iniciar bloquea sirviendo HTTP hasta que se llame a Detener
func (s *ServidorMonitor) Iniciar() error {
	// Si ya tiene Listener asignado (tests)
	if s.Listener == nil {
		address := fmt.Sprintf("%s:%d", s.IP, s.Puerto)
		listener, err := net.Listen("tcp", address)
		if err != nil {
			return fmt.Errorf("error escuchando en %s: %w", address, err)
		}
		s.Listener = listener
	}

	InfoLog.Info("Servidor de monitoreo escuchando", "módulo", s.Nombre, "dirección", s.Listener.Addr().String())
	err := s.server.Serve(s.Listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Detener cierra el servidor
func (s *ServidorMonitor) Detener(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
