package hclmodel

import (
	"fmt"
	"reflect"

	"github.com/specialistvlad/mapvar/internal/dist"
	"github.com/specialistvlad/mapvar/internal/tensor"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// distributionType is the cty type of values produced by the distribution
// functions. It wraps a dist.Distribution.
var distributionType = cty.Capsule("distribution", reflect.TypeOf((*dist.Distribution)(nil)).Elem())

func distributionVal(d dist.Distribution) cty.Value {
	return cty.CapsuleVal(distributionType, &d)
}

func distributionFromCty(v cty.Value) (dist.Distribution, error) {
	if !v.IsKnown() || v.IsNull() {
		return nil, fmt.Errorf("distribution is null or unknown")
	}
	if !v.Type().Equals(distributionType) {
		return nil, fmt.Errorf("expected a distribution, got %s", v.Type().FriendlyName())
	}
	return *v.EncapsulatedValue().(*dist.Distribution), nil
}

// tensorToCty converts single elements to numbers and everything else to a
// flat list of numbers.
func tensorToCty(t tensor.Tensor) cty.Value {
	if t.Size() == 1 {
		return cty.NumberFloatVal(t.Data[0])
	}
	if t.Size() == 0 {
		return cty.ListValEmpty(cty.Number)
	}
	vals := make([]cty.Value, t.Size())
	for i, v := range t.Data {
		vals[i] = cty.NumberFloatVal(v)
	}
	return cty.ListVal(vals)
}

var numberList = cty.List(cty.Number)

// tensorFromCty accepts a number or any sequence convertible to a list of
// numbers.
func tensorFromCty(v cty.Value) (tensor.Tensor, error) {
	if !v.IsKnown() || v.IsNull() {
		return tensor.Tensor{}, fmt.Errorf("value is null or unknown")
	}
	if v.Type() == cty.Number {
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return tensor.Tensor{}, err
		}
		return tensor.Scalar(f), nil
	}
	list, err := convert.Convert(v, numberList)
	if err != nil {
		return tensor.Tensor{}, fmt.Errorf("expected a number or a list of numbers, got %s", v.Type().FriendlyName())
	}
	var fs []float64
	if err := gocty.FromCtyValue(list, &fs); err != nil {
		return tensor.Tensor{}, err
	}
	return tensor.Vector(fs...), nil
}
