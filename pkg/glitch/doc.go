// Package glitch renders an endlessly animated "glitch" distortion over a
// still image: RGB channel splitting, horizontal scan-line corruption bars
// and random noise bursts.
//
// # Overview
//
// A [Renderer] owns one decoded image and borrows one [Surface]. Once
// [Renderer.Initialize] has loaded the image and sized the surface, a
// [Scheduler] invokes the renderer once per display refresh. Each tick:
//
//  1. resizes the surface (see [ComputeSize])
//  2. fills it with the background color
//  3. re-rolls the glitch [Origin] when the tick crosses a period boundary
//  4. draws the image, shifts its R/G/B channels and writes it back
//  5. optionally draws noise bursts
//  6. draws channel-shifted glitch bars
//
// The pixel operations ([ShiftChannels], [FillNoise]) are pure functions
// over RGBA byte slices and never fail: writes that land outside the buffer
// are dropped.
//
// # Lifecycle
//
// A renderer moves through Idle → Loading → Running → Stopped. [Renderer.Stop]
// deregisters the pending frame so the loop terminates deterministically.
// A stopped renderer cannot be restarted; create a new one instead.
//
// # Randomness
//
// All random draws go through a [Source]. Production code uses a seeded PCG
// generator from [NewSource]; tests can supply scripted sequences.
//
//	canvas := glitch.NewCanvas(1, 1)
//	sched := glitch.NewTickerScheduler(60)
//	defer sched.Close()
//	r, err := glitch.New(glitch.Config{
//	    Surface:   canvas,
//	    Source:    "https://example.com/logo.svg",
//	    Loader:    ldr,
//	    Scheduler: sched,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := r.Initialize(ctx); err != nil {
//	    return err
//	}
//	defer r.Stop()
package glitch
