package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/utils"
)

func main() {
	os.Exit(run(os.Args, os.Stderr))
}

// run devuelve el código de salida: 0 si la simulación terminó, 1 si falló
// el arranque
func run(args []string, stderr io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintf(stderr, "Uso: %s <archivo_configuracion>\n", args[0])
		fmt.Fprintf(stderr, "Ejemplo: %s configs/simulador-config.json\n", args[0])
		return 1
	}
	configPath := args[1]

	config, err := utils.CargarConfiguracion[SimuladorConfig](configPath)
	if err != nil {
		utils.ErrorLog.Error("Error al cargar la configuración", "archivo", configPath, "error", err)
		return 1
	}
	if err := config.Validar(); err != nil {
		utils.ErrorLog.Error("Configuración inválida", "archivo", configPath, "error", err)
		return 1
	}

	if err := utils.InicializarLogger(config.LogLevel, "simulador", config.LogPath); err != nil {
		utils.ErrorLog.Error("Error al inicializar el logger", "error", err)
		return 1
	}
	utils.InfoLog.Info("Simulador iniciando", "config", configPath)

	simulador, err := NuevoSimulador(config, nil)
	if err != nil {
		utils.ErrorLog.Error("Error durante la inicialización del simulador", "error", err)
		return 1
	}
	defer simulador.Cerrar()

	simulador.Ejecutar()
	return 0
}
