package classifier

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"leafguard/server/imaging"
	"leafguard/server/models"
)

// Model wraps an ONNX Runtime session for the trained binary classifier:
// input [1, 224, 224, 3] float32 NHWC, output [1, 1] sigmoid probability.
//
// The session owns fixed input/output tensors, so Infer serializes access
// with a mutex; callers share one Model per process.
type Model struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// LoadModel initializes the ONNX environment and creates a session for the
// artifact at path. A missing or unreadable artifact yields
// ErrModelUnavailable so the caller can choose the heuristic path.
func LoadModel(path string) (*Model, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("%w: initialize onnxruntime: %v", models.ErrModelUnavailable, err)
	}

	inputShape := ort.NewShape(1, imaging.Size, imaging.Size, imaging.Channels)
	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("%w: create input tensor: %v", models.ErrModelUnavailable, err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("%w: create output tensor: %v", models.ErrModelUnavailable, err)
	}

	session, err := ort.NewAdvancedSession(path,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("%w: create session: %v", models.ErrModelUnavailable, err)
	}

	return &Model{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Infer runs the batched tensor through the session and returns the raw
// probability. Failures surface as InferenceError; the model never falls
// back to the heuristic on its own.
func (m *Model) Infer(batched []float32) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copy(m.inputTensor.GetData(), batched)

	if err := m.session.Run(); err != nil {
		return 0, &models.InferenceError{Err: err}
	}

	out := m.outputTensor.GetData()
	if len(out) == 0 {
		return 0, &models.InferenceError{Err: fmt.Errorf("empty model output")}
	}
	return float64(out[0]), nil
}

// Close releases the session and its tensors.
func (m *Model) Close() {
	if m.inputTensor != nil {
		m.inputTensor.Destroy()
	}
	if m.outputTensor != nil {
		m.outputTensor.Destroy()
	}
	if m.session != nil {
		m.session.Destroy()
	}
	ort.DestroyEnvironment()
}
