//go:build js && wasm

package main

import (
	"syscall/js"
	"unsafe"

	"github.com/cwbudde/algo-chords/internal/app"
	"github.com/cwbudde/algo-chords/preset"
	"github.com/cwbudde/algo-chords/routing"
	"github.com/cwbudde/algo-chords/sensor"
	"github.com/cwbudde/algo-chords/synth"
)

const maxBlock = 128

var (
	rig          *app.Rig
	outputBuffer []float32
)

func main() {
	c := make(chan struct{})

	js.Global().Set("wasmInit", js.FuncOf(wasmInit))
	js.Global().Set("wasmSetReading", js.FuncOf(wasmSetReading))
	js.Global().Set("wasmTick", js.FuncOf(wasmTick))
	js.Global().Set("wasmProcessBlock", js.FuncOf(wasmProcessBlock))
	js.Global().Set("wasmSetRoute", js.FuncOf(wasmSetRoute))
	js.Global().Set("wasmLoadChords", js.FuncOf(wasmLoadChords))
	js.Global().Set("wasmSelectChord", js.FuncOf(wasmSelectChord))
	js.Global().Set("wasmLoadIR", js.FuncOf(wasmLoadIR))
	js.Global().Set("wasmPause", js.FuncOf(wasmPause))
	js.Global().Set("wasmResume", js.FuncOf(wasmResume))
	js.Global().Set("wasmActivity", js.FuncOf(wasmActivity))
	js.Global().Set("wasmGetMemoryBuffer", js.FuncOf(wasmGetMemoryBuffer))

	println("WASM chord module loaded")
	<-c
}

func wasmInit(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	cfg := preset.DefaultConfig()
	cfg.SampleRate = args[0].Int()
	if rig != nil {
		_ = rig.Close()
	}
	r, err := app.New(cfg, app.Options{})
	if err != nil {
		println("init failed:", err.Error())
		return nil
	}
	rig = r
	outputBuffer = make([]float32, maxBlock*2)

	println("Chords initialized at", cfg.SampleRate, "Hz")
	return nil
}

// wasmSetReading(name, value) stores a sensor reading, e.g. "cursorX".
func wasmSetReading(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || rig == nil {
		return false
	}
	id, err := sensor.ParseID(args[0].String())
	if err != nil {
		return false
	}
	rig.Bank.SetReading(id, args[1].Float())
	return true
}

func wasmTick(this js.Value, args []js.Value) interface{} {
	if rig == nil {
		return nil
	}
	rig.Loop.Tick()
	return rig.Loop.Snapshot().ActiveChord
}

func wasmProcessBlock(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || rig == nil {
		return 0
	}
	numFrames := args[0].Int()
	if numFrames > maxBlock {
		numFrames = maxBlock
	}
	if numFrames <= 0 {
		return 0
	}
	rig.Engine.ProcessTo(outputBuffer[:numFrames*2])

	ptr := &outputBuffer[0]
	return js.ValueOf(uintptr(unsafe.Pointer(ptr)))
}

// wasmSetRoute(slot, source, target, gain, invert)
func wasmSetRoute(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 || rig == nil {
		return false
	}
	src, err := sensor.ParseID(args[1].String())
	if err != nil {
		println(err.Error())
		return false
	}
	tgt, err := routing.ParseTarget(args[2].String())
	if err != nil {
		println(err.Error())
		return false
	}
	slot := routing.Slot{Source: src, Target: tgt, Gain: args[3].Float()}
	if len(args) > 4 {
		slot.Invert = args[4].Bool()
	}
	if err := rig.Loop.SetRoute(args[0].Int(), slot); err != nil {
		println(err.Error())
		return false
	}
	return true
}

// wasmLoadChords(text) replaces the bank from chord-file text or a builtin
// bank name.
func wasmLoadChords(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || rig == nil {
		return false
	}
	text := args[0].String()
	bank, err := preset.Builtin(text)
	if err != nil {
		bank, err = preset.ParseChords(text)
	}
	if err == nil {
		err = rig.Loop.ReplaceChords(bank)
	}
	if err != nil {
		println("chords rejected:", err.Error())
		return false
	}
	return true
}

func wasmSelectChord(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || rig == nil {
		return nil
	}
	rig.Loop.SelectChord(args[0].Int())
	return nil
}

// wasmLoadIR(left, right Float32Array, wet) installs a room response.
func wasmLoadIR(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || rig == nil {
		return false
	}
	left := copyFloats(args[0])
	right := copyFloats(args[1])
	wet := 0.25
	if len(args) > 2 {
		wet = args[2].Float()
	}
	room := synth.NewRoom(rig.Engine.SampleRate())
	if err := room.SetIR(left, right); err != nil {
		println("IR rejected:", err.Error())
		return false
	}
	rig.Engine.SetRoom(room, synth.Mix{Dry: float32(1 - wet), Wet: float32(wet)})
	println("IR loaded:", len(left), "samples")
	return true
}

func copyFloats(v js.Value) []float32 {
	n := v.Get("length").Int()
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(v.Index(i).Float())
	}
	return out
}

func wasmPause(this js.Value, args []js.Value) interface{} {
	if rig != nil {
		rig.Loop.Pause()
	}
	return nil
}

func wasmResume(this js.Value, args []js.Value) interface{} {
	if rig != nil {
		rig.Loop.Resume()
	}
	return nil
}

func wasmActivity(this js.Value, args []js.Value) interface{} {
	if rig == nil {
		return 0
	}
	return rig.Loop.Snapshot().Intensity
}

func wasmGetMemoryBuffer(this js.Value, args []js.Value) interface{} {
	return js.Global().Get("Go").Get("_inst").Get("exports").Get("mem").Get("buffer")
}
