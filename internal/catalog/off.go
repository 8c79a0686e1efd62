package catalog

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/food-health-score-server/internal/domain"
)

// Open Food Facts dump columns read by the generator.
const (
	colCode          = "code"
	colName          = "product_name"
	colBrands        = "brands"
	colCategories    = "categories_en"
	colCountries     = "countries_tags"
	colServingSize   = "serving_size"
	colIngredients   = "ingredients_text"
	colUniqueScans   = "unique_scans_n"
	colEnergyKcal    = "energy-kcal_100g"
	colEnergyKJ      = "energy-kj_100g"
	colProteins      = "proteins_100g"
	colCarbohydrates = "carbohydrates_100g"
	colFat           = "fat_100g"
	colSaturatedFat  = "saturated-fat_100g"
	colFiber         = "fiber_100g"
	colSugars        = "sugars_100g"
	colSodium        = "sodium_100g"
)

const (
	minBarcodeLength = 8
	maxIngredients   = 20
)

var ingredientSeparators = []string{", ", "; ", " - "}

// Row is one accepted dump record, converted to a product.
type Row struct {
	Product domain.Product
	Scans   int
}

// readCloser closes both the gzip reader and the underlying file.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Open opens a dump file, decompressing it when the name ends in .gz.
func Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".gz") {
		return file, nil
	}

	gz, err := gzip.NewReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read gzip stream %s: %w", path, err)
	}
	return &readCloser{Reader: gz, closers: []io.Closer{gz, file}}, nil
}

// Reader streams product rows out of a tab-separated Open Food Facts dump.
type Reader struct {
	csv     *csv.Reader
	columns map[string]int
	country string
	record  []string
}

// NewReader reads the header line. country filters on countries_tags; empty
// accepts every country.
func NewReader(r io.Reader, country string) (*Reader, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colCode, colName} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	return &Reader{
		csv:     reader,
		columns: columns,
		country: strings.ToLower(strings.TrimSpace(country)),
	}, nil
}

// Status classifies a dump record.
type Status int

const (
	Accepted Status = iota
	// Filtered records belong to another country.
	Filtered
	// Rejected records lack a barcode, a name or any nutrition data, or fail to parse.
	Rejected
)

// Next returns the next record and its status; io.EOF ends the stream.
func (r *Reader) Next() (Row, Status, error) {
	record, err := r.csv.Read()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return Row{}, Rejected, nil
		}
		return Row{}, Rejected, err
	}
	r.record = record

	if r.country != "" && !strings.Contains(strings.ToLower(r.field(colCountries)), r.country) {
		return Row{}, Filtered, nil
	}

	product, ok := r.product()
	if !ok {
		return Row{}, Rejected, nil
	}
	scans, _ := strconv.Atoi(r.field(colUniqueScans))
	return Row{Product: product, Scans: scans}, Accepted, nil
}

func (r *Reader) field(name string) string {
	i, ok := r.columns[name]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r *Reader) product() (domain.Product, bool) {
	barcode := r.field(colCode)
	name := r.field(colName)
	if len(barcode) < minBarcodeLength || name == "" {
		return domain.Product{}, false
	}

	calories := r.nutriment(colEnergyKcal, 0, 10000)
	if calories == nil {
		if kj := r.nutriment(colEnergyKJ, 0, 41840); kj != nil {
			calories = domain.Float(*kj / domain.KilojoulesPerKilocalorie)
		}
	}

	product := domain.Product{
		Barcode:        barcode,
		Name:           name,
		Brand:          firstEntry(r.field(colBrands)),
		Category:       category(r.field(colCategories)),
		Calories:       calories,
		Protein:        r.nutriment(colProteins, 0, 100),
		Carbohydrates:  r.nutriment(colCarbohydrates, 0, 100),
		Fat:            r.nutriment(colFat, 0, 100),
		SaturatedFat:   r.nutriment(colSaturatedFat, 0, 100),
		Fiber:          r.nutriment(colFiber, 0, 100),
		Sugar:          r.nutriment(colSugars, 0, 100),
		ServingSize:    r.field(colServingSize),
		NutritionBasis: string(domain.BasisPer100g),
		Ingredients:    ParseIngredients(r.field(colIngredients)),
	}
	// the dump records sodium in grams
	if sodium := r.nutriment(colSodium, 0, 100); sodium != nil {
		product.Sodium = domain.Float(*sodium * 1000)
	}

	if isZero(product.Calories) && isZero(product.Protein) && isZero(product.Carbohydrates) {
		return domain.Product{}, false
	}
	if err := product.Validate(); err != nil {
		return domain.Product{}, false
	}
	return product, true
}

// nutriment parses a numeric column. Units after the number are ignored;
// missing, unparseable and implausible values are nil.
func (r *Reader) nutriment(name string, min, max float64) *float64 {
	raw := r.field(name)
	if raw == "" {
		return nil
	}
	if fields := strings.Fields(raw); len(fields) > 0 {
		raw = fields[0]
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < min || v > max {
		return nil
	}
	return &v
}

func isZero(v *float64) bool {
	return v == nil || *v == 0
}

func firstEntry(list string) string {
	first, _, _ := strings.Cut(list, ",")
	return strings.TrimSpace(first)
}

func category(categories string) string {
	if c := strings.ToLower(firstEntry(categories)); c != "" {
		return c
	}
	return "other"
}

// ParseIngredients splits a label ingredient text on the first separator it
// contains and keeps at most 20 lower-cased entries.
func ParseIngredients(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	parts := []string{text}
	for _, sep := range ingredientSeparators {
		if strings.Contains(text, sep) {
			parts = strings.Split(text, sep)
			break
		}
	}

	ingredients := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			ingredients = append(ingredients, p)
		}
		if len(ingredients) == maxIngredients {
			break
		}
	}
	return ingredients
}
