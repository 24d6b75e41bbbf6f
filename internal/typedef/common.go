package typedef

// CommonTypes declares the helpers and engine value types every synthesized
// definition refers to by name.
const CommonTypes = "interface IExposedAttributes { type?: string, visible?: boolean, multiline?: boolean, min?: number, max?: number, step?: number, precision?: number, unit?: string, radian?: boolean }\n" +
	"function property(options: IExposedAttributes) {}\n" +
	"type InstanceReference<T> = { id: string; type: string };\n" +
	"class Vec2 { x: number; y: number; }\n" +
	"class Vec3 { x: number; y: number; z: number; }\n" +
	"class Vec4 { x: number; y: number; z: number; w: number; }\n" +
	"class Color { r: number; g: number; b: number; a: number; }\n" +
	"class Rect { x: number; y: number; width: number; height: number; }\n" +
	"class Size { width: number; height: number; }\n" +
	"class Quat { x: number; y: number; z: number; w: number; }\n" +
	"class Mat3 { m00: number; m01: number; m02: number;\n" +
	"\tm03: number; m04: number; m05: number;\n" +
	"\tm06: number; m07: number; m08: number; }\n" +
	"class Mat4 { m00: number; m01: number; m02: number; m03: number;\n" +
	"\tm04: number; m05: number; m06: number; m07: number;\n" +
	"\tm08: number; m09: number; m10: number; m11: number;\n" +
	"\tm12: number; m13: number; m14: number; m15: number; }\n" +
	"class Gradient { alphaKeys: Array<{ alpha: number, time: number }>, colorKeys: Array<{ /* always 3 elements: r, g and b values */color: Array<number>, time: number }>, mode: number }"
