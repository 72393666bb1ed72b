package vm

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// snapshotState is the JSON form of the VM control state.
type snapshotState struct {
	IP       int     `json:"ip"`
	Halted   bool    `json:"halted"`
	Executed uint64  `json:"executed"`
	Stack    []int32 `json:"stack"`
}

// snapshotInstr is the JSON form of one instruction.
type snapshotInstr struct {
	Op string `json:"op"`
	X  int32  `json:"x,omitempty"`
}

// SnapshotToBytes serialises the VM into an in-memory ZIP archive holding
// vm_state.json, program.json and a human readable program.asm listing.
func (m *VM) SnapshotToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	state := snapshotState{
		IP:       m.IP,
		Halted:   m.Halted,
		Executed: m.Executed,
		Stack:    m.Stack,
	}
	if state.Stack == nil {
		state.Stack = []int32{}
	}
	stateData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal vm_state: %w", err)
	}
	if err := writeZipEntry(zw, "vm_state.json", stateData); err != nil {
		return nil, err
	}

	prog := make([]snapshotInstr, len(m.Program))
	var listing strings.Builder
	for i, in := range m.Program {
		prog[i] = snapshotInstr{Op: in.Op.String(), X: in.X}
		marker := "  "
		if i == m.IP {
			marker = "> "
		}
		fmt.Fprintf(&listing, "%s%s\n", marker, in)
	}
	progData, err := json.Marshal(prog)
	if err != nil {
		return nil, fmt.Errorf("marshal program: %w", err)
	}
	if err := writeZipEntry(zw, "program.json", progData); err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, "program.asm", []byte(listing.String())); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// RestoreFromBytes rebuilds a VM from a snapshot archive. The restored VM
// has no Output or Trace set.
func RestoreFromBytes(data []byte) (*VM, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	fileMap := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		fileMap[f.Name] = f
	}

	stateData, err := readZipEntry(fileMap, "vm_state.json")
	if err != nil {
		return nil, err
	}
	var state snapshotState
	if err := json.Unmarshal(stateData, &state); err != nil {
		return nil, fmt.Errorf("unmarshal vm_state: %w", err)
	}

	progData, err := readZipEntry(fileMap, "program.json")
	if err != nil {
		return nil, err
	}
	var prog []snapshotInstr
	if err := json.Unmarshal(progData, &prog); err != nil {
		return nil, fmt.Errorf("unmarshal program: %w", err)
	}

	m := &VM{
		Program:  make([]Instruction, len(prog)),
		Stack:    state.Stack,
		IP:       state.IP,
		Halted:   state.Halted,
		Executed: state.Executed,
	}
	for i, p := range prog {
		op, ok := LookupOpcode(p.Op)
		if !ok {
			return nil, fmt.Errorf("program entry %d: unknown opcode %q", i, p.Op)
		}
		m.Program[i] = Instruction{Op: op, X: p.X}
	}
	return m, nil
}

// SnapshotToFile writes the snapshot archive to path.
func (m *VM) SnapshotToFile(path string) error {
	data, err := m.SnapshotToBytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RestoreFromFile reads a snapshot archive from path.
func RestoreFromFile(path string) (*VM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return RestoreFromBytes(data)
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %q: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}

func readZipEntry(fileMap map[string]*zip.File, name string) ([]byte, error) {
	f, ok := fileMap[name]
	if !ok {
		return nil, fmt.Errorf("zip entry %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry %q: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
