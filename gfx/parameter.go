package gfx

import (
	"fmt"

	"github.com/pkg/errors"
)

// Parameter identifies render pipeline parameter.
type Parameter uint8

// Parameters.
const (
	DepthTest Parameter = iota
	DepthFunction
	CullFace
	CullFaceMode
	FrontFace
	ShaderProgram
)

// Values of pipeline enums.
const (
	FuncNever    int32 = 0x0200
	FuncLess     int32 = 0x0201
	FuncEqual    int32 = 0x0202
	FuncLEqual   int32 = 0x0203
	FuncGreater  int32 = 0x0204
	FuncNotEqual int32 = 0x0205
	FuncGEqual   int32 = 0x0206
	FuncAlways   int32 = 0x0207

	FaceFront        int32 = 0x0404
	FaceBack         int32 = 0x0405
	FaceFrontAndBack int32 = 0x0408

	WindingCW  int32 = 0x0900
	WindingCCW int32 = 0x0901
)

var parameters = map[Parameter]struct {
	name string
	kind Kind
}{
	DepthTest:     {name: "DepthTest", kind: KindBool},
	DepthFunction: {name: "DepthFunction", kind: KindInt},
	CullFace:      {name: "CullFace", kind: KindBool},
	CullFaceMode:  {name: "CullFaceMode", kind: KindInt},
	FrontFace:     {name: "FrontFace", kind: KindInt},
	ShaderProgram: {name: "ShaderProgram", kind: KindInt},
}

func (p Parameter) String() string {
	if def, exists := parameters[p]; exists {
		return def.name
	}
	return fmt.Sprintf("parameter(%d)", p)
}

// Validate checks that the value has the kind accepted by the parameter.
func (p Parameter) Validate(v Value) error {
	def, exists := parameters[p]
	if !exists {
		return errors.Wrapf(ErrInvalidParameter, "unknown parameter %d", p)
	}
	if v.Kind() != def.kind {
		return errors.Wrapf(ErrInvalidParameter, "parameter %s requires %s value, %s given", p, def.kind,
			v.Kind())
	}
	return nil
}

// defaults are applied when the engine is claimed for the first time.
var defaults = []struct {
	Parameter Parameter
	Value     Value
}{
	{Parameter: DepthTest, Value: Bool(true)},
	{Parameter: DepthFunction, Value: Int(FuncLEqual)},
	{Parameter: CullFace, Value: Bool(true)},
	{Parameter: CullFaceMode, Value: Int(FaceBack)},
	{Parameter: FrontFace, Value: Int(WindingCCW)},
}
