package excel

import (
	"errors"
	"fmt"
)

// Errores de extracción: fatales para el archivo, el importador de
// carpetas los captura por archivo y sigue con el resto.
var (
	ErrNoHeader          = errors.New("no se pudo localizar la fila de encabezados")
	ErrNoRecords         = errors.New("no se encontraron registros de venta")
	ErrMissingDateColumn = errors.New("el extracto no contiene la columna de fecha")
)

// ExtractionError agrega el archivo de origen al error base.
type ExtractionError struct {
	File string
	Err  error
}

// Error implementa la interfaz error
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Err.Error())
}

// Unwrap devuelve el error subyacente
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError crea un error de extracción con contexto de archivo
func NewExtractionError(file string, err error) *ExtractionError {
	return &ExtractionError{
		File: file,
		Err:  err,
	}
}

// IsExtractionError distingue fallas de extracción de errores de
// persistencia u otros.
func IsExtractionError(err error) bool {
	var e *ExtractionError
	return errors.As(err, &e)
}
