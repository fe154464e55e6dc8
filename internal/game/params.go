package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Params struct {
	Height    int `json:"height" schema:"height,required" yaml:"height" validate:"min=1,max=64"`
	Width     int `json:"width" schema:"width,required" yaml:"width" validate:"min=1,max=64"`
	MineCount int `json:"mine_count" schema:"mine_count,required" yaml:"mine_count" validate:"min=0"`
}

var (
	Beginner     = Params{Height: 8, Width: 8, MineCount: 8}
	Intermediate = Params{Height: 16, Width: 16, MineCount: 40}
	Expert       = Params{Height: 16, Width: 30, MineCount: 99}
)

var ErrInvalidParams = errors.New("invalid game parameters")

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterStructValidation(paramsStructLevel, Params{})
}

// at least one cell must stay free of mines, otherwise there is nothing
// to open
func paramsStructLevel(sl validator.StructLevel) {
	p := sl.Current().Interface().(Params)
	if p.MineCount >= p.Height*p.Width {
		sl.ReportError(p.MineCount, "MineCount", "mine_count", "ltcells", "")
	}
}

func (p Params) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidParams, strings.Join(fields, ", "))
}

func (p Params) Cells() int {
	return p.Height * p.Width
}

func ParseDifficulty(s string) (Params, error) {
	switch strings.ToLower(s) {
	case "beginner":
		return Beginner, nil
	case "intermediate":
		return Intermediate, nil
	case "expert":
		return Expert, nil
	default:
		return Params{}, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidParams, s)
	}
}
