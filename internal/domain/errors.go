package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDataSourceUnavailable = errors.New("fonte de dados indisponível")
	ErrInvalidPeriod         = errors.New("período inválido")
	ErrInsufficientData      = errors.New("dados insuficientes")
	ErrModelNotTrained       = errors.New("modelo não treinado")
	ErrNoData                = errors.New("nenhum dado disponível")
	ErrJobNotFound           = errors.New("job não encontrado")
	ErrJobStoreUnavailable   = errors.New("armazenamento de jobs indisponível")
)

// DataSourceError wraps the cause of an unavailable source and matches
// ErrDataSourceUnavailable under errors.Is.
type DataSourceError struct {
	Source string
	Err    error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("%s (%s): %v", ErrDataSourceUnavailable, e.Source, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

func (e *DataSourceError) Is(target error) bool {
	return target == ErrDataSourceUnavailable
}

func Unavailable(source string, err error) error {
	return &DataSourceError{Source: source, Err: err}
}

// MalformedRow describes a source row that was excluded from a load.
type MalformedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (m MalformedRow) Error() string {
	return fmt.Sprintf("linha %d: %s", m.Line, m.Reason)
}
