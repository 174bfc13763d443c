// Package stylec compiles CSS-in-JS style files ahead of time.
//
// Style files export generators built with the stylec runtime:
//
//	// button.css.ts
//	import { styled } from "stylec";
//
//	export const Button = styled("button", {
//		base: { color: "{colors.brand}", padding: 10 },
//		variants: { size: { large: { fontSize: 20 } } },
//	});
//
// A Compiler bundles and evaluates every style file, writes one CSS file per
// exported entity into the output directory, and rewrites the style files so
// that only class names and client metadata reach the browser:
//
//	c, err := stylec.New(".", stylec.WithLogger(log))
//	result, err := c.GenerateAll(ctx)
//
// Host bundler integrations call CompileOne on file changes, MinimizeSource
// when loading a style file and ShouldInvalidate to decide whether a change
// needs a full rebuild.
//
// The stylec command wraps the same API. Install with:
//
//	go install github.com/yacobolo/stylec/cmd/stylec@latest
package stylec
