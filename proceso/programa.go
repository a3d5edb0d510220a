package proceso

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/memoria"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/utils"
)

// ErrCargaImagen indica que no se pudo obtener un programa de una imagen
var ErrCargaImagen = errors.New("error de carga de imagen")

const (
	OpNoop  = "NOOP"
	OpCalc  = "CALC"
	OpWrite = "WRITE"
	OpRead  = "READ"
	OpDump  = "DUMP"
)

type Instruccion struct {
	Operacion string
	Direccion int
	Tamanio   int
	Dato      string
}

func (i Instruccion) String() string {
	switch i.Operacion {
	case OpWrite:
		return fmt.Sprintf("%s %d %s", i.Operacion, i.Direccion, i.Dato)
	case OpRead:
		return fmt.Sprintf("%s %d %d", i.Operacion, i.Direccion, i.Tamanio)
	default:
		return i.Operacion
	}
}

// AccedeMemoria indica si la instrucción toca el espacio de direcciones
func (i Instruccion) AccedeMemoria() bool {
	return i.Operacion == OpWrite || i.Operacion == OpRead
}

// Programa es la secuencia ordenada de instrucciones de una imagen
type Programa struct {
	Nombre        string
	Instrucciones []Instruccion
}

// ParsearPrograma interpreta una instrucción por línea. Las líneas vacías y
// las que empiezan con # se ignoran.
func ParsearPrograma(nombre string, contenido string) (*Programa, error) {
	programa := &Programa{Nombre: nombre}

	scanner := bufio.NewScanner(strings.NewReader(contenido))
	numeroLinea := 0
	for scanner.Scan() {
		numeroLinea++
		linea := strings.TrimSpace(scanner.Text())
		if linea == "" || strings.HasPrefix(linea, "#") {
			continue
		}

		instruccion, err := parsearInstruccion(linea)
		if err != nil {
			return nil, fmt.Errorf("%w: %s línea %d: %v", ErrCargaImagen, nombre, numeroLinea, err)
		}
		programa.Instrucciones = append(programa.Instrucciones, instruccion)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCargaImagen, nombre, err)
	}

	return programa, nil
}

func parsearInstruccion(linea string) (Instruccion, error) {
	partes := strings.Fields(linea)
	operacion := strings.ToUpper(partes[0])
	parametros := partes[1:]

	switch operacion {
	case OpNoop, OpCalc, OpDump:
		if len(parametros) != 0 {
			return Instruccion{}, fmt.Errorf("%s no recibe parámetros", operacion)
		}
		return Instruccion{Operacion: operacion}, nil

	case OpWrite:
		if len(parametros) != 2 {
			return Instruccion{}, fmt.Errorf("WRITE espera <direccion> <dato>")
		}
		direccion, err := parsearEntero(parametros[0])
		if err != nil {
			return Instruccion{}, fmt.Errorf("dirección de WRITE: %v", err)
		}
		if len(parametros[1]) > memoria.MaxTamanioAcceso {
			return Instruccion{}, fmt.Errorf("dato de WRITE demasiado largo (%d bytes)", len(parametros[1]))
		}
		return Instruccion{Operacion: operacion, Direccion: direccion, Dato: parametros[1]}, nil

	case OpRead:
		if len(parametros) != 2 {
			return Instruccion{}, fmt.Errorf("READ espera <direccion> <tamanio>")
		}
		direccion, err := parsearEntero(parametros[0])
		if err != nil {
			return Instruccion{}, fmt.Errorf("dirección de READ: %v", err)
		}
		tamanio, err := parsearEntero(parametros[1])
		if err != nil || tamanio == 0 || tamanio > memoria.MaxTamanioAcceso {
			return Instruccion{}, fmt.Errorf("tamaño de READ inválido: %s", parametros[1])
		}
		return Instruccion{Operacion: operacion, Direccion: direccion, Tamanio: tamanio}, nil

	default:
		return Instruccion{}, fmt.Errorf("operación desconocida %q", partes[0])
	}
}

// parsearEntero acepta decimal o hexadecimal (0x...) entre 0 y MaxInt32
func parsearEntero(texto string) (int, error) {
	valor, err := strconv.ParseInt(texto, 0, 64)
	if err != nil {
		return 0, err
	}
	if valor < 0 {
		return 0, fmt.Errorf("valor negativo %d", valor)
	}
	if valor > math.MaxInt32 {
		return 0, fmt.Errorf("valor fuera de rango %d", valor)
	}
	return int(valor), nil
}

// CargarPrograma lee la imagen de un proceso desde disco
func CargarPrograma(ruta string) (*Programa, error) {
	contenido, err := os.ReadFile(ruta)
	if err != nil {
		utils.ErrorLog.Error("Error leyendo imagen de proceso", "archivo", ruta, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCargaImagen, err)
	}

	programa, err := ParsearPrograma(filepath.Base(ruta), string(contenido))
	if err != nil {
		return nil, err
	}

	utils.InfoLog.Debug("Imagen cargada", "archivo", ruta, "instrucciones", len(programa.Instrucciones))
	return programa, nil
}

// FuenteArchivos resuelve imágenes relativas a un directorio
type FuenteArchivos struct {
	Directorio string
}

func (f FuenteArchivos) Cargar(nombre string) (*Programa, error) {
	return CargarPrograma(filepath.Join(f.Directorio, nombre))
}
