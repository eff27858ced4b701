package api

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
	"github.com/jeovahfialho/sales-analyzer/internal/service"
)

// paramError is a malformed query parameter; handlers answer it with 400.
type paramError struct {
	param string
	msg   string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("parâmetro %s inválido: %s", e.param, e.msg)
}

func queryDate(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return nil, &paramError{param: name, msg: "formato de data inválido (use YYYY-MM-DD)"}
	}
	return &t, nil
}

func queryInt64(c *fiber.Ctx, name string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, &paramError{param: name, msg: "esperado número inteiro"}
	}
	return &v, nil
}

func queryFloat(c *fiber.Ctx, name string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil {
		return nil, &paramError{param: name, msg: "esperado número"}
	}
	return &v, nil
}

// queryIntDefault parses an integer parameter no smaller than min.
func queryIntDefault(c *fiber.Ctx, name string, def, min int) (int, error) {
	v, err := queryInt64(c, name)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return def, nil
	}
	if *v < int64(min) {
		return 0, &paramError{param: name, msg: fmt.Sprintf("deve ser >= %d", min)}
	}
	return int(*v), nil
}

func parseFilters(c *fiber.Ctx) (domain.FilterSpec, error) {
	var (
		f   domain.FilterSpec
		err error
	)

	if f.DateFrom, err = queryDate(c, "start_date"); err != nil {
		return f, err
	}
	if f.DateTo, err = queryDate(c, "end_date"); err != nil {
		return f, err
	}
	if f.MinQuantity, err = queryInt64(c, "min_quantity"); err != nil {
		return f, err
	}
	if f.MaxQuantity, err = queryInt64(c, "max_quantity"); err != nil {
		return f, err
	}
	if f.MinPrice, err = queryFloat(c, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryFloat(c, "max_price"); err != nil {
		return f, err
	}
	f.Product = c.Query("product")
	f.Region = c.Query("region")

	return f.Normalized(), nil
}

func parseSort(c *fiber.Ctx) domain.SortSpec {
	return domain.SortSpec{
		Field:     strings.TrimSpace(c.Query("sort_by")),
		Direction: c.Query("sort_order", domain.SortDesc),
	}
}

// parsePage accepts page/page_size or limit/offset. page/page_size wins when
// both are present; with neither, the first page of the default size is used.
func parsePage(c *fiber.Ctx) (domain.PageSpec, error) {
	if c.Query("page") != "" || c.Query("page_size") != "" || (c.Query("limit") == "" && c.Query("offset") == "") {
		page, err := queryIntDefault(c, "page", 1, 1)
		if err != nil {
			return domain.PageSpec{}, err
		}
		size, err := queryIntDefault(c, "page_size", service.DefaultPageSize, 1)
		if err != nil {
			return domain.PageSpec{}, err
		}
		if size > service.MaxPageSize {
			return domain.PageSpec{}, &paramError{param: "page_size", msg: fmt.Sprintf("deve ser <= %d", service.MaxPageSize)}
		}
		if page-1 > math.MaxInt/size {
			return domain.PageSpec{}, &paramError{param: "page", msg: "fora do intervalo para o page_size informado"}
		}
		return domain.PageFromNumber(page, size), nil
	}

	offset, err := queryIntDefault(c, "offset", 0, 0)
	if err != nil {
		return domain.PageSpec{}, err
	}
	page := domain.PageSpec{Offset: offset}

	if c.Query("limit") != "" {
		limit, err := queryIntDefault(c, "limit", 0, 1)
		if err != nil {
			return domain.PageSpec{}, err
		}
		page.Limit = &limit
	}
	return page, nil
}
