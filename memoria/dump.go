package memoria

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/utils"
)

// CrearVolcado escribe la memoria del proceso en <directorio>/<pid>-<timestamp>.dmp
// y devuelve la ruta del archivo creado.
func CrearVolcado(m Memoria, espacio *EspacioDirecciones, pid int, directorio string) (string, error) {
	timestamp := time.Now().Format("20060102-150405.000")
	rutaCompleta := filepath.Join(directorio, fmt.Sprintf("%d-%s.dmp", pid, timestamp))

	if err := os.MkdirAll(directorio, 0755); err != nil {
		utils.ErrorLog.Error("Error creando directorio dump", "error", err)
		return "", fmt.Errorf("error al crear directorio para dumps: %w", err)
	}

	archivo, err := os.Create(rutaCompleta)
	if err != nil {
		utils.ErrorLog.Error("Error creando archivo dump", "archivo", rutaCompleta, "error", err)
		return "", fmt.Errorf("error al crear archivo de dump: %w", err)
	}
	defer archivo.Close()

	if err := m.Volcar(espacio, archivo); err != nil {
		utils.ErrorLog.Error("Error escribiendo dump", "archivo", rutaCompleta, "error", err)
		return "", err
	}

	utils.InfoLog.Info(fmt.Sprintf("## PID: %d Memory Dump solicitado", pid), "archivo", rutaCompleta)
	return rutaCompleta, nil
}
