//go:build sdl2

package sdl2

import "github.com/veandco/go-sdl2/sdl"

// sdlKeyNames translates SDL2 keycodes to the string key names used by
// input.DefaultKeyMap, so this backend shares one binding table with the
// terminal backend instead of keeping its own independent action map.
var sdlKeyNames = map[sdl.Keycode]string{
	sdl.K_RETURN: "Enter",
	sdl.K_UP:     "Up",
	sdl.K_DOWN:   "Down",
	sdl.K_LEFT:   "Left",
	sdl.K_RIGHT:  "Right",
	sdl.K_ESCAPE: "Escape",
	sdl.K_SPACE:  "Space",

	sdl.K_z: "z",
	sdl.K_x: "x",
	sdl.K_w: "w",
	sdl.K_s: "s",
	sdl.K_a: "a",
	sdl.K_d: "d",
	sdl.K_p: "p",
	sdl.K_o: "o",
	sdl.K_f: "f",
	sdl.K_i: "i",
	sdl.K_n: "n",
	sdl.K_q: "q",

	sdl.K_F1:  "F1",
	sdl.K_F2:  "F2",
	sdl.K_F3:  "F3",
	sdl.K_F4:  "F4",
	sdl.K_F5:  "F5",
	sdl.K_F9:  "F9",
	sdl.K_F12: "F12",

	sdl.K_1: "1",
	sdl.K_2: "2",
	sdl.K_3: "3",
	sdl.K_4: "4",

	sdl.K_EQUALS: "=",
	sdl.K_MINUS:  "-",
}
