package view

// DefaultBreakpoint ancho máximo (px) considerado móvil
const DefaultBreakpoint = 768

// Classify indica si un ancho de ventana corresponde a un dispositivo móvil.
// Un ancho desconocido (<= 0) se trata como escritorio.
func Classify(width, breakpoint int) bool {
	if breakpoint <= 0 {
		breakpoint = DefaultBreakpoint
	}
	if width <= 0 {
		return false
	}
	return width <= breakpoint
}

// DeviceHint texto de la pantalla principal según el tipo de dispositivo
func DeviceHint(mobile bool) string {
	if mobile {
		return "Estás usando un teléfono celular"
	}
	return "Estás usando una computadora/notebook"
}
