package memoria

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/utils"
)

// ConfigPaginacion son los parámetros del gestor. Los tamaños están en bytes.
type ConfigPaginacion struct {
	TamPagina         int
	TamMemoria        int
	TamSwaps          []int
	SwapPaths         []string
	TamMemoriaVirtual int
	RetardoSwap       int
}

// propietario identifica la página que ocupa un marco
type propietario struct {
	espacio *EspacioDirecciones
	pagina  int
}

// Gestor es la memoria paginada. Un único lock serializa toda mutación de
// tablas, bitmaps y contenido de marcos.
type Gestor struct {
	mu         sync.Mutex
	tamPagina  int
	tamVirtual int
	ram        *MemoriaFisica
	swaps      []*AlmacenSwap
	activo     int
	duenos     []propietario
}

func NuevoGestor(cfg ConfigPaginacion) (*Gestor, error) {
	if cfg.TamPagina <= 0 {
		return nil, fmt.Errorf("tamaño de página inválido: %d", cfg.TamPagina)
	}

	cantidadMarcos := cfg.TamMemoria / cfg.TamPagina
	g := &Gestor{
		tamPagina:  cfg.TamPagina,
		tamVirtual: cfg.TamMemoriaVirtual,
		ram:        NuevaMemoriaFisica(cfg.TamPagina, cantidadMarcos),
		duenos:     make([]propietario, cantidadMarcos),
	}

	for i, tamanio := range cfg.TamSwaps {
		var dispositivo Dispositivo
		if i < len(cfg.SwapPaths) && cfg.SwapPaths[i] != "" {
			archivo, err := NuevoDispositivoArchivo(cfg.SwapPaths[i], tamanio)
			if err != nil {
				g.Cerrar()
				return nil, err
			}
			dispositivo = archivo
		} else {
			dispositivo = NuevoDispositivoMemoria(tamanio)
		}
		g.swaps = append(g.swaps, NuevoAlmacenSwap(i, cfg.TamPagina, tamanio, dispositivo, cfg.RetardoSwap))
	}

	utils.InfoLog.Info("Memoria completamente inicializada",
		"marcos", cantidadMarcos,
		"swaps", len(g.swaps),
		"tamaño_virtual", cfg.TamMemoriaVirtual)
	return g, nil
}

// Cerrar libera los dispositivos de swap
func (g *Gestor) Cerrar() error {
	var errs []error
	for _, almacen := range g.swaps {
		if err := almacen.Cerrar(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (g *Gestor) TamPagina() int {
	return g.tamPagina
}

// NuevoEspacio crea el espacio de un proceso con un área RW [0, tamVirtual)
func (g *Gestor) NuevoEspacio(pid int) *EspacioDirecciones {
	espacio := nuevoEspacio(pid)
	espacio.AgregarArea(AreaVirtual{Base: 0, Longitud: g.tamVirtual, Permisos: PermisoLecturaEscritura})

	utils.InfoLog.Info(fmt.Sprintf("## PID: %d - Proceso Creado - Tamaño: %d", pid, g.tamVirtual))
	return espacio
}

// Resolver devuelve el marco que respalda la página, trayéndola de swap o
// asignándole un marco en cero si hace falta.
func (g *Gestor) Resolver(espacio *EspacioDirecciones, pagina int) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.resolver(espacio, pagina)
}

func (g *Gestor) resolver(espacio *EspacioDirecciones, pagina int) (int, error) {
	espacio.metricas.AccesosTablasPaginas++
	entrada := espacio.tabla[pagina]

	switch entrada.Estado {
	case EnMarco:
		return entrada.Marco, nil

	case EnSwap:
		espacio.metricas.FallosPagina++
		almacen := g.swaps[entrada.Dispositivo]

		buffer := make([]byte, g.tamPagina)
		if err := almacen.leer(entrada.Slot, buffer); err != nil {
			return -1, err
		}

		// El slot propio se libera antes de elegir víctima para que un swap
		// lleno igual pueda intercambiar páginas
		almacen.liberarSlot(entrada.Slot)
		marco, err := g.obtenerMarco()
		if err != nil {
			almacen.reclamarSlot(entrada.Slot)
			return -1, err
		}

		copy(g.ram.marco(marco), buffer)
		g.mapear(espacio, pagina, marco)
		espacio.metricas.SubidasMemoria++

		utils.InfoLog.Info(fmt.Sprintf("## PID: %d - Página %d recuperada de SWAP al marco %d", espacio.PID, pagina, marco))
		return marco, nil

	default:
		espacio.metricas.FallosPagina++
		marco, err := g.obtenerMarco()
		if err != nil {
			return -1, err
		}

		clear(g.ram.marco(marco))
		g.mapear(espacio, pagina, marco)

		utils.InfoLog.Debug(fmt.Sprintf("PID: %d OBTENER MARCO Página: %d Marco: %d", espacio.PID, pagina, marco))
		return marco, nil
	}
}

func (g *Gestor) mapear(espacio *EspacioDirecciones, pagina int, marco int) {
	espacio.tabla[pagina] = EntradaTabla{Estado: EnMarco, Marco: marco}
	g.duenos[marco] = propietario{espacio: espacio, pagina: pagina}
}

// obtenerMarco devuelve un marco ya marcado como ocupado. Si no hay libres
// desaloja el de número más bajo hacia el swap activo. Ante ErrSinMemoria no
// modifica nada.
func (g *Gestor) obtenerMarco() (int, error) {
	if marco, ok := g.ram.asignar(); ok {
		return marco, nil
	}

	asignados := g.ram.asignados()
	if len(asignados) == 0 {
		return -1, ErrSinMemoria
	}
	victima := asignados[0]

	almacen, slot, ok := g.reservarSlotSwap()
	if !ok {
		utils.ErrorLog.Error("No hay marcos ni slots de swap libres", "marcos", g.ram.Cantidad())
		return -1, ErrSinMemoria
	}

	if err := almacen.escribir(slot, g.ram.marco(victima)); err != nil {
		almacen.liberarSlot(slot)
		return -1, err
	}

	dueno := g.duenos[victima]
	dueno.espacio.tabla[dueno.pagina] = EntradaTabla{Estado: EnSwap, Dispositivo: almacen.ID, Slot: slot}
	dueno.espacio.metricas.BajadasSwap++
	g.duenos[victima] = propietario{}

	utils.InfoLog.Info(fmt.Sprintf("## PID: %d - Datos movidos a SWAP - Página: %d", dueno.espacio.PID, dueno.pagina),
		"marco", victima, "swap", almacen.ID, "slot", slot)
	return victima, nil
}

// reservarSlotSwap usa el almacén activo y, si está lleno, rota al siguiente
// con lugar
func (g *Gestor) reservarSlotSwap() (*AlmacenSwap, int, bool) {
	for i := 0; i < len(g.swaps); i++ {
		id := (g.activo + i) % len(g.swaps)
		slot, ok := g.swaps[id].reservarSlot()
		if !ok {
			continue
		}
		if id != g.activo {
			utils.InfoLog.Info("Cambio de swap activo", "anterior", g.activo, "nuevo", id)
			g.activo = id
		}
		return g.swaps[id], slot, true
	}
	return nil, -1, false
}

// CambiarSwapActivo elige el almacén que recibe los próximos desalojos
func (g *Gestor) CambiarSwapActivo(id int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id < 0 || id >= len(g.swaps) {
		return fmt.Errorf("swap inexistente: %d", id)
	}
	g.activo = id
	utils.InfoLog.Info("Swap activo seleccionado", "swap", id)
	return nil
}

func (g *Gestor) Leer(espacio *EspacioDirecciones, direccion int, tamanio int) ([]byte, error) {
	if espacio == nil {
		return nil, fmt.Errorf("%w: proceso sin espacio de direcciones", ErrViolacionSegmento)
	}
	if err := espacio.verificarAcceso(direccion, tamanio, PermisoLectura); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	resultado := make([]byte, tamanio)
	for leidos := 0; leidos < tamanio; {
		actual := direccion + leidos
		marco, err := g.resolver(espacio, actual/g.tamPagina)
		if err != nil {
			return nil, err
		}
		leidos += copy(resultado[leidos:], g.ram.marco(marco)[actual%g.tamPagina:])
	}
	espacio.metricas.LecturasMemoria++
	return resultado, nil
}

func (g *Gestor) Escribir(espacio *EspacioDirecciones, direccion int, datos []byte) error {
	if espacio == nil {
		return fmt.Errorf("%w: proceso sin espacio de direcciones", ErrViolacionSegmento)
	}
	if err := espacio.verificarAcceso(direccion, len(datos), PermisoEscritura); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for escritos := 0; escritos < len(datos); {
		actual := direccion + escritos
		marco, err := g.resolver(espacio, actual/g.tamPagina)
		if err != nil {
			return err
		}
		escritos += copy(g.ram.marco(marco)[actual%g.tamPagina:], datos[escritos:])
	}
	espacio.metricas.EscriturasMemoria++
	return nil
}

// Liberar devuelve todos los marcos y slots del proceso y loguea sus métricas
func (g *Gestor) Liberar(espacio *EspacioDirecciones) {
	if espacio == nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for pagina, entrada := range espacio.tabla {
		switch entrada.Estado {
		case EnMarco:
			g.ram.liberar(entrada.Marco)
			g.duenos[entrada.Marco] = propietario{}
		case EnSwap:
			g.swaps[entrada.Dispositivo].liberarSlot(entrada.Slot)
		}
		delete(espacio.tabla, pagina)
	}

	m := espacio.metricas
	utils.InfoLog.Info(fmt.Sprintf("## PID: %d - Proceso Destruido - Métricas: ATP;%d;PF;%d;SWAP;%d;MemPrin;%d;LecMem;%d;EscMem;%d",
		espacio.PID, m.AccesosTablasPaginas, m.FallosPagina, m.BajadasSwap, m.SubidasMemoria, m.LecturasMemoria, m.EscriturasMemoria))
}

// Volcar escribe el contenido de cada página mapeada, en orden de página
func (g *Gestor) Volcar(espacio *EspacioDirecciones, w io.Writer) error {
	if espacio == nil {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	paginas := make([]int, 0, len(espacio.tabla))
	for pagina := range espacio.tabla {
		paginas = append(paginas, pagina)
	}
	sort.Ints(paginas)

	buffer := make([]byte, g.tamPagina)
	for _, pagina := range paginas {
		entrada := espacio.tabla[pagina]
		contenido := buffer
		switch entrada.Estado {
		case EnMarco:
			contenido = g.ram.marco(entrada.Marco)
		case EnSwap:
			if err := g.swaps[entrada.Dispositivo].leer(entrada.Slot, buffer); err != nil {
				return err
			}
		default:
			continue
		}
		if _, err := w.Write(contenido); err != nil {
			return fmt.Errorf("error al escribir volcado: %w", err)
		}
	}
	return nil
}

// Entrada devuelve una copia de la entrada de tabla de la página
func (g *Gestor) Entrada(espacio *EspacioDirecciones, pagina int) EntradaTabla {
	g.mu.Lock()
	defer g.mu.Unlock()
	return espacio.tabla[pagina]
}

func (g *Gestor) Metricas(espacio *EspacioDirecciones) MetricasProceso {
	g.mu.Lock()
	defer g.mu.Unlock()
	return espacio.metricas
}

// EstadoMemoria es una foto de la ocupación para el monitor
type EstadoMemoria struct {
	MarcosTotales int   `json:"marcos_totales"`
	MarcosLibres  int   `json:"marcos_libres"`
	SlotsLibres   []int `json:"slots_libres"`
	SwapActivo    int   `json:"swap_activo"`
}

func (g *Gestor) Instantanea() EstadoMemoria {
	g.mu.Lock()
	defer g.mu.Unlock()

	estado := EstadoMemoria{
		MarcosTotales: g.ram.Cantidad(),
		MarcosLibres:  g.ram.Libres(),
		SwapActivo:    g.activo,
	}
	for _, almacen := range g.swaps {
		estado.SlotsLibres = append(estado.SlotsLibres, almacen.Libres())
	}
	return estado
}
