package backend

import (
	"errors"
	"image"
	"slices"
	"testing"
	"time"
)

type stubDevice struct{ name string }

func (d *stubDevice) Name() string                                       { return d.name }
func (d *stubDevice) Info() DeviceInfo                                   { return DeviceInfo{Backend: d.name} }
func (d *stubDevice) CreateTexture(TextureDescriptor) (TextureID, error) { return 1, nil }
func (d *stubDevice) UploadFull(TextureID, []byte)                       {}
func (d *stubDevice) UploadRegion(TextureID, image.Rectangle, []byte)    {}
func (d *stubDevice) InsertFence() (FenceID, error)                      { return 1, nil }
func (d *stubDevice) WaitFence(FenceID, time.Duration) (bool, error)     { return true, nil }
func (d *stubDevice) DestroyTexture(TextureID)                           {}
func (d *stubDevice) QueryError() error                                  { return nil }
func (d *stubDevice) Close()                                             {}

// withRegistry runs the test against an empty registry and restores it afterwards.
func withRegistry(t *testing.T) {
	t.Helper()
	mu.Lock()
	saved := factories
	factories = make(map[string]Factory)
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		factories = saved
		mu.Unlock()
	})
}

func TestRegisterAndOpen(t *testing.T) {
	withRegistry(t)

	Register("test", func() (Device, error) { return &stubDevice{name: "test"}, nil })
	if !IsRegistered("test") {
		t.Fatal("IsRegistered(test) = false after Register")
	}

	dev, err := Open("test")
	if err != nil {
		t.Fatalf("Open(test) error = %v", err)
	}
	if dev.Name() != "test" {
		t.Errorf("Name() = %q, want %q", dev.Name(), "test")
	}

	Unregister("test")
	if IsRegistered("test") {
		t.Error("IsRegistered(test) = true after Unregister")
	}
}

func TestOpenUnknown(t *testing.T) {
	withRegistry(t)

	_, err := Open("nonexistent")
	if !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open(nonexistent) error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestOpenCompiledOut(t *testing.T) {
	withRegistry(t)

	Register("stub", func() (Device, error) { return nil, nil })
	_, err := Open("stub")
	if !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open(stub) error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestOpenFactoryError(t *testing.T) {
	withRegistry(t)

	Register("broken", func() (Device, error) { return nil, ErrNoAdapter })
	_, err := Open("broken")
	if !errors.Is(err, ErrNoAdapter) {
		t.Errorf("Open(broken) error = %v, want ErrNoAdapter", err)
	}
}

func TestAvailableSorted(t *testing.T) {
	withRegistry(t)

	for _, name := range []string{"webgpu", "simulated", "vulkan", "noop"} {
		Register(name, func() (Device, error) { return &stubDevice{name: name}, nil })
	}
	got := Available()
	want := []string{"noop", "simulated", "vulkan", "webgpu"}
	if !slices.Equal(got, want) {
		t.Errorf("Available() = %v, want %v", got, want)
	}
}

func TestOpenDefault(t *testing.T) {
	tests := []struct {
		name    string
		setup   map[string]Factory
		want    string
		wantErr error
	}{
		{
			name:    "empty registry",
			setup:   nil,
			wantErr: ErrBackendNotAvailable,
		},
		{
			name: "simulated is never implicit",
			setup: map[string]Factory{
				BackendSimulated: func() (Device, error) { return &stubDevice{name: BackendSimulated}, nil },
				BackendNoop:      func() (Device, error) { return &stubDevice{name: BackendNoop}, nil },
			},
			wantErr: ErrBackendNotAvailable,
		},
		{
			name: "vulkan preferred",
			setup: map[string]Factory{
				BackendVulkan: func() (Device, error) { return &stubDevice{name: BackendVulkan}, nil },
				BackendWebGPU: func() (Device, error) { return &stubDevice{name: BackendWebGPU}, nil },
			},
			want: BackendVulkan,
		},
		{
			name: "falls through failing vulkan",
			setup: map[string]Factory{
				BackendVulkan: func() (Device, error) { return nil, ErrNoAdapter },
				BackendWebGPU: func() (Device, error) { return &stubDevice{name: BackendWebGPU}, nil },
			},
			want: BackendWebGPU,
		},
		{
			name: "reports last error",
			setup: map[string]Factory{
				BackendVulkan: func() (Device, error) { return nil, ErrNoAdapter },
			},
			wantErr: ErrNoAdapter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withRegistry(t)
			for name, f := range tt.setup {
				Register(name, f)
			}

			dev, err := OpenDefault()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("OpenDefault() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("OpenDefault() error = %v", err)
			}
			if dev.Name() != tt.want {
				t.Errorf("OpenDefault() = %q, want %q", dev.Name(), tt.want)
			}
		})
	}
}

func TestCheckRequirements(t *testing.T) {
	tests := []struct {
		name    string
		max     int
		min     int
		wantErr bool
	}{
		{"meets", 16384, 3840, false},
		{"exact", 3840, 3840, false},
		{"too small", 2048, 3840, true},
		{"unknown limit", 0, 3840, false},
		{"no requirement", 1024, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRequirements(DeviceInfo{MaxTextureSize: tt.max}, Requirements{MinTextureSize: tt.min})
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckRequirements() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrCapability) {
				t.Errorf("error = %v, want ErrCapability", err)
			}
		})
	}
}

func TestCheckRegion(t *testing.T) {
	desc := TextureDescriptor{Width: 8, Height: 4, Format: FormatBGRA8}
	full := make([]byte, 8*4*4)

	tests := []struct {
		name    string
		region  image.Rectangle
		pixels  []byte
		wantErr error
	}{
		{"inside", image.Rect(1, 1, 3, 3), full, nil},
		{"whole", image.Rect(0, 0, 8, 4), full, nil},
		{"empty", image.Rectangle{}, full, nil},
		{"past right", image.Rect(6, 0, 9, 2), full, ErrInvalidRegion},
		{"negative", image.Rect(-1, 0, 2, 2), full, ErrInvalidRegion},
		{"past bottom", image.Rect(0, 3, 2, 5), full, ErrInvalidRegion},
		{"short", image.Rect(0, 2, 8, 4), full[:8*4*3], ErrShortBuffer},
		// Last row only needs bytes up to the end of the region.
		{"short but enough", image.Rect(0, 0, 2, 4), full[:3*32+8], nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRegion(desc, tt.region, tt.pixels)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("CheckRegion() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckRegion() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckFull(t *testing.T) {
	desc := TextureDescriptor{Width: 4, Height: 4, Format: FormatBGRA8}
	if err := CheckFull(desc, make([]byte, 64)); err != nil {
		t.Errorf("CheckFull(64) error = %v", err)
	}
	if err := CheckFull(desc, make([]byte, 63)); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("CheckFull(63) error = %v, want ErrShortBuffer", err)
	}
}

func TestRegionOffset(t *testing.T) {
	r := image.Rect(16, 16, 48, 48)
	if got := RegionOffset(r, 128*4, FormatBGRA8); got != (16*128+16)*4 {
		t.Errorf("RegionOffset() = %d, want %d", got, (16*128+16)*4)
	}
	if got := UploadBytes(r, FormatBGRA8); got != 32*32*4 {
		t.Errorf("UploadBytes() = %d, want %d", got, 32*32*4)
	}
}

func TestDescriptorValidate(t *testing.T) {
	if err := (TextureDescriptor{Width: 1, Height: 1}).Validate(); err != nil {
		t.Errorf("Validate(1x1) error = %v", err)
	}
	if err := (TextureDescriptor{Width: 0, Height: 1}).Validate(); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Validate(0x1) error = %v, want ErrInvalidDimensions", err)
	}
}

func TestDeviceInfoString(t *testing.T) {
	info := DeviceInfo{Backend: "vulkan", Renderer: "GPU 9000", Vendor: "Acme"}
	if got, want := info.String(), "vulkan: GPU 9000 (Acme)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := (DeviceInfo{Backend: "noop"}).String(); got != "noop" {
		t.Errorf("String() = %q, want %q", got, "noop")
	}
}
