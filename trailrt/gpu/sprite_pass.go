package gpu

import (
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/skintrail/trailrt/core"
	"github.com/gekko3d/skintrail/trailrt/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraData matches the WGSL CameraData uniform.
type CameraData struct {
	ViewProj mgl32.Mat4
	Viewport [4]float32 // width, height, feather, unused
}

const cameraDataSize = uint64(unsafe.Sizeof(CameraData{}))

// spriteCorners is a unit quad as two triangles, in corner space [-1, 1].
var spriteCorners = [6][2]float32{
	{-1, -1}, {1, -1}, {1, 1},
	{-1, -1}, {1, 1}, {-1, 1},
}

// SpritePass draws every trail instance as a camera-facing quad with a circular mask.
type SpritePass struct {
	Device         *wgpu.Device
	Pipeline       *wgpu.RenderPipeline
	BindGroup      *wgpu.BindGroup
	CameraBuffer   *wgpu.Buffer
	CornerBuffer   *wgpu.Buffer
	InstanceBuffer *wgpu.Buffer
	InstanceCap    uint32
	InstanceCount  uint32
}

func NewSpritePass(device *wgpu.Device, format wgpu.TextureFormat) (*SpritePass, error) {
	shaderModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "TrailSpriteShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.TrailSpritesWGSL},
	})
	if err != nil {
		return nil, err
	}
	defer shaderModule.Release()

	bgl, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "TrailCameraBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: cameraDataSize,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return nil, err
	}

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "TrailSpritePipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     shaderModule,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: uint64(unsafe.Sizeof(spriteCorners[0])),
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					},
				},
				{
					ArrayStride: uint64(unsafe.Sizeof(core.ParticleInstance{})),
					StepMode:    wgpu.VertexStepModeInstance,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: uint64(unsafe.Offsetof(core.ParticleInstance{}.Pos)), ShaderLocation: 1},
						{Format: wgpu.VertexFormatFloat32, Offset: uint64(unsafe.Offsetof(core.ParticleInstance{}.Size)), ShaderLocation: 2},
						{Format: wgpu.VertexFormatFloat32x4, Offset: uint64(unsafe.Offsetof(core.ParticleInstance{}.Color)), ShaderLocation: 3},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shaderModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    format,
					WriteMask: wgpu.ColorWriteMaskAll,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorSrcAlpha,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						},
						Alpha: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						},
					},
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}

	p := &SpritePass{
		Device:   device,
		Pipeline: pipeline,
	}

	p.CameraBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "TrailCameraBuffer",
		Size:  cameraDataSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}

	corners := spriteCorners[:]
	p.CornerBuffer, err = device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "TrailCornerBuffer",
		Contents: wgpu.ToBytes(corners),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, err
	}

	p.BindGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "TrailCameraBG",
		Layout: bgl,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  p.CameraBuffer,
				Size:    cameraDataSize,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *SpritePass) UpdateCamera(queue *wgpu.Queue, cam CameraData) error {
	return queue.WriteBuffer(p.CameraBuffer, 0, CameraBytes(&cam))
}

// Update uploads this frame's instances, growing the instance buffer when needed.
func (p *SpritePass) Update(queue *wgpu.Queue, instances []core.ParticleInstance) error {
	p.InstanceCount = uint32(len(instances))
	if len(instances) == 0 {
		return nil
	}

	if p.InstanceBuffer == nil || p.InstanceCap < p.InstanceCount {
		if p.InstanceBuffer != nil {
			p.InstanceBuffer.Release()
		}
		p.InstanceCap = p.InstanceCount + p.InstanceCount/4
		buf, err := p.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "TrailInstanceBuffer",
			Size:  uint64(p.InstanceCap) * uint64(unsafe.Sizeof(core.ParticleInstance{})),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			p.InstanceBuffer, p.InstanceCap, p.InstanceCount = nil, 0, 0
			return err
		}
		p.InstanceBuffer = buf
	}

	return queue.WriteBuffer(p.InstanceBuffer, 0, InstanceBytes(instances))
}

func (p *SpritePass) Draw(pass *wgpu.RenderPassEncoder) {
	if p.InstanceBuffer == nil || p.InstanceCount == 0 {
		return
	}
	pass.SetPipeline(p.Pipeline)
	pass.SetBindGroup(0, p.BindGroup, nil)
	pass.SetVertexBuffer(0, p.CornerBuffer, 0, p.CornerBuffer.GetSize())
	pass.SetVertexBuffer(1, p.InstanceBuffer, 0, p.InstanceBuffer.GetSize())
	pass.Draw(uint32(len(spriteCorners)), p.InstanceCount, 0, 0)
}

func (p *SpritePass) Release() {
	for _, b := range []*wgpu.Buffer{p.InstanceBuffer, p.CornerBuffer, p.CameraBuffer} {
		if b != nil {
			b.Release()
		}
	}
	if p.BindGroup != nil {
		p.BindGroup.Release()
	}
	if p.Pipeline != nil {
		p.Pipeline.Release()
	}
}

// InstanceBytes views instances as raw bytes without copying.
func InstanceBytes(instances []core.ParticleInstance) []byte {
	if len(instances) == 0 {
		return nil
	}
	size := len(instances) * int(unsafe.Sizeof(core.ParticleInstance{}))
	return unsafe.Slice((*byte)(unsafe.Pointer(&instances[0])), size)
}

func CameraBytes(cam *CameraData) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(cam)), cameraDataSize)
}
