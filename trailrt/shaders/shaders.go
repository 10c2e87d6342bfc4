package shaders

import (
	_ "embed"
)

//go:embed trail_sprites.wgsl
var TrailSpritesWGSL string
