package oracle

import (
	"fmt"
	"log"
	"math"
	"path/filepath"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"chesszero/internal/chess"
)

// Tensor layout constants for the ONNX policy/value network. Spatial
// channels are 12 piece planes per history frame (NumPieceTypes/2 per
// side, stacked oldest-to-newest); global features cover the flags a
// single board snapshot can't express. Generalized from the teacher's
// NNEvaluator's 13x13/25-plane xiangqi encoding to this engine's 8x8 board
// and spec.md §6's T-deep history / 4672-wide policy head.
const (
	BoardSize         = 8
	PlanesPerPosition = 12
	NumGlobalFeatures = 13 // 4 castle-rights bits + 8 en-passant-file one-hot + half-move count
	MaxBatchSize      = 64
	BatchTimeout      = 2 * time.Millisecond
)

type evalRequest struct {
	history []chess.Position
	result  chan evalResponse
}

type evalResponse struct {
	policy [chess.NumActions]float32
	value  float32
	err    error
}

// ONNXOracle is a batched oracle.Oracle backed by github.com/yalue/
// onnxruntime_go. Concurrent callers' Evaluate calls fan into one queue;
// a background goroutine drains it into fixed-size batches on a timeout,
// runs one session.Run() per batch, and fans results back out — the same
// architecture as the teacher's NNEvaluator, generalized to a single tanh
// value head instead of a 3-way win/loss/draw softmax (spec.md's value is
// a single scalar in [-1,1], not a 3-class distribution).
type ONNXOracle struct {
	session *ort.AdvancedSession
	queue   chan evalRequest

	historyLength int

	spatialInput []float32
	globalInput  []float32
	policyOutput []float32
	valueOutput  []float32

	inputs  []ort.Value
	outputs []ort.Value

	mu           sync.Mutex
	totalItems   int64
	totalBatches int64
}

// NewONNXOracle loads the model at modelPath, resolves the platform ONNX
// Runtime shared library from libPath, and probes execution providers in
// the teacher's fixed TensorRT -> CUDA -> DirectML -> CPU order, moving on
// to the next provider whenever one fails to initialize.
func NewONNXOracle(modelPath, libPath string, historyLength int) (*ONNXOracle, error) {
	resolvedModel, err := resolveModelPath(modelPath)
	if err != nil {
		return nil, fmt.Errorf("resolve model path: %w", err)
	}

	if !ort.IsInitialized() {
		absLibPath, err := resolveORTSharedLibraryPath(libPath)
		if err != nil {
			return nil, fmt.Errorf("resolve onnxruntime shared library: %w", err)
		}
		configureORTSearchPath(filepath.Dir(absLibPath))
		ort.SetSharedLibraryPath(absLibPath)
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime environment: %w", err)
		}
	}

	spatialChannels := PlanesPerPosition * historyLength
	spatialInput := make([]float32, MaxBatchSize*spatialChannels*BoardSize*BoardSize)
	globalInput := make([]float32, MaxBatchSize*NumGlobalFeatures)
	policyOutput := make([]float32, MaxBatchSize*chess.NumActions)
	valueOutput := make([]float32, MaxBatchSize)

	spatialShape := ort.NewShape(MaxBatchSize, int64(spatialChannels), BoardSize, BoardSize)
	globalShape := ort.NewShape(MaxBatchSize, int64(NumGlobalFeatures))
	policyShape := ort.NewShape(MaxBatchSize, int64(chess.NumActions))
	valueShape := ort.NewShape(MaxBatchSize, 1)

	spatialTensor, err := ort.NewTensor(spatialShape, spatialInput)
	if err != nil {
		return nil, fmt.Errorf("create spatial tensor: %w", err)
	}
	globalTensor, err := ort.NewTensor(globalShape, globalInput)
	if err != nil {
		return nil, fmt.Errorf("create global tensor: %w", err)
	}
	policyTensor, err := ort.NewTensor(policyShape, policyOutput)
	if err != nil {
		return nil, fmt.Errorf("create policy tensor: %w", err)
	}
	valueTensor, err := ort.NewTensor(valueShape, valueOutput)
	if err != nil {
		return nil, fmt.Errorf("create value tensor: %w", err)
	}

	inputs := []ort.Value{spatialTensor, globalTensor}
	outputs := []ort.Value{policyTensor, valueTensor}
	inputNames := []string{"spatial_inputs", "global_inputs"}
	outputNames := []string{"policy", "value"}

	providers := []struct {
		name  string
		setup func(*ort.SessionOptions) error
	}{
		{"TensorRT", func(so *ort.SessionOptions) error {
			trtOpts, e := ort.NewTensorRTProviderOptions()
			if e != nil {
				return e
			}
			defer trtOpts.Destroy()
			return so.AppendExecutionProviderTensorRT(trtOpts)
		}},
		{"CUDA", func(so *ort.SessionOptions) error {
			cudaOpts, e := ort.NewCUDAProviderOptions()
			if e != nil {
				return e
			}
			defer cudaOpts.Destroy()
			return so.AppendExecutionProviderCUDA(cudaOpts)
		}},
		{"DirectML", func(so *ort.SessionOptions) error {
			return so.AppendExecutionProviderDirectML(0)
		}},
		{"CPU", func(so *ort.SessionOptions) error { return nil }},
	}

	var session *ort.AdvancedSession
	for _, p := range providers {
		so, err := ort.NewSessionOptions()
		if err != nil {
			continue
		}
		if err := p.setup(so); err != nil {
			log.Printf("oracle: %s execution provider setup failed: %v", p.name, err)
			so.Destroy()
			continue
		}
		s, err := ort.NewAdvancedSession(resolvedModel, inputNames, outputNames, inputs, outputs, so)
		so.Destroy()
		if err != nil {
			log.Printf("oracle: %s session creation failed: %v", p.name, err)
			continue
		}
		log.Printf("oracle: initialized with %s", p.name)
		session = s
		break
	}
	if session == nil {
		return nil, fmt.Errorf("failed to create an onnxruntime session with any execution provider")
	}

	o := &ONNXOracle{
		session:       session,
		queue:         make(chan evalRequest, MaxBatchSize*8),
		historyLength: historyLength,
		spatialInput:  spatialInput,
		globalInput:   globalInput,
		policyOutput:  policyOutput,
		valueOutput:   valueOutput,
		inputs:        inputs,
		outputs:       outputs,
	}
	go o.batchLoop()
	return o, nil
}

func (o *ONNXOracle) Close() error {
	if o.session != nil {
		o.session.Destroy()
	}
	for _, v := range o.inputs {
		v.Destroy()
	}
	for _, v := range o.outputs {
		v.Destroy()
	}
	return nil
}

// Evaluate enqueues history for the next batch and blocks for the result.
func (o *ONNXOracle) Evaluate(history []chess.Position) ([chess.NumActions]float32, float32, error) {
	resp := make(chan evalResponse, 1)
	o.queue <- evalRequest{history: history, result: resp}
	r := <-resp
	return r.policy, r.value, r.err
}

// TrainBatch is out of this component's scope (model-weight updates are
// the oracle's own concern per spec.md §4.8); a real training backend
// would stream examples into its framework of choice here.
func (o *ONNXOracle) TrainBatch(examples []TrainingExample) error {
	return fmt.Errorf("oracle: ONNXOracle.TrainBatch is not implemented; train externally and reload the model")
}

func (o *ONNXOracle) batchLoop() {
	requests := make([]evalRequest, 0, MaxBatchSize)
	for {
		requests = requests[:0]
		req, ok := <-o.queue
		if !ok {
			return
		}
		requests = append(requests, req)

		timeout := time.After(BatchTimeout)
	collect:
		for len(requests) < MaxBatchSize {
			select {
			case r := <-o.queue:
				requests = append(requests, r)
			case <-timeout:
				break collect
			}
		}
		o.processBatch(requests)
	}
}

func (o *ONNXOracle) processBatch(requests []evalRequest) {
	o.mu.Lock()
	defer o.mu.Unlock()

	batchSize := len(requests)
	for i, req := range requests {
		o.fillOne(i, req.history)
	}
	if batchSize < MaxBatchSize {
		o.clearBatchTail(batchSize)
	}

	if err := o.session.Run(); err != nil {
		for _, req := range requests {
			req.result <- evalResponse{err: fmt.Errorf("onnxruntime session run: %w", err)}
		}
		return
	}

	o.totalBatches++
	o.totalItems += int64(batchSize)

	for i, req := range requests {
		var policy [chess.NumActions]float32
		copy(policy[:], o.policyOutput[i*chess.NumActions:(i+1)*chess.NumActions])
		value := float32(math.Tanh(float64(o.valueOutput[i])))
		req.result <- evalResponse{policy: policy, value: value}
	}
}

// fillOne writes one history's spatial/global features into batch slot
// batchIdx. Piece planes are stacked oldest-to-newest, one set of 12 per
// history frame; missing frames (history shorter than historyLength) are
// the caller's responsibility to pad, per spec.md §4.6 step 3c.
func (o *ONNXOracle) fillOne(batchIdx int, history []chess.Position) {
	spatialChannels := PlanesPerPosition * o.historyLength
	planeSize := BoardSize * BoardSize
	spatialOffset := batchIdx * spatialChannels * planeSize
	globalOffset := batchIdx * NumGlobalFeatures

	spatial := o.spatialInput[spatialOffset : spatialOffset+spatialChannels*planeSize]
	for i := range spatial {
		spatial[i] = 0
	}
	global := o.globalInput[globalOffset : globalOffset+NumGlobalFeatures]
	for i := range global {
		global[i] = 0
	}

	for t, pos := range history {
		if t >= o.historyLength {
			break
		}
		frameOffset := t * PlanesPerPosition * planeSize
		for sq := 0; sq < chess.NumSquares; sq++ {
			pt := pos.TypeAt[sq]
			if pt == chess.NoPiece {
				continue
			}
			spatial[frameOffset+int(pt)*planeSize+sq] = 1.0
		}
	}

	if len(history) > 0 {
		flags := history[len(history)-1].Flags
		if flags.CastleRights&chess.CastleWQ != 0 {
			global[0] = 1
		}
		if flags.CastleRights&chess.CastleWK != 0 {
			global[1] = 1
		}
		if flags.CastleRights&chess.CastleBQ != 0 {
			global[2] = 1
		}
		if flags.CastleRights&chess.CastleBK != 0 {
			global[3] = 1
		}
		if flags.EnPassantFile >= 0 {
			global[4+int(flags.EnPassantFile)] = 1
		}
		global[12] = float32(flags.HalfMoveCount) / 63.0
	}
}

func (o *ONNXOracle) clearBatchTail(startIdx int) {
	spatialChannels := PlanesPerPosition * o.historyLength
	spatialSize := spatialChannels * BoardSize * BoardSize
	for i := startIdx * spatialSize; i < MaxBatchSize*spatialSize; i++ {
		o.spatialInput[i] = 0
	}
	for i := startIdx * NumGlobalFeatures; i < MaxBatchSize*NumGlobalFeatures; i++ {
		o.globalInput[i] = 0
	}
}
