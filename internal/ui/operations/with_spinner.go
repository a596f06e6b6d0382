package operations

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ignitionstack/polytree/internal/ui/models/spinner"
)

type OperationFunc func() (interface{}, error)

type DisplayFunc func(result Result)

// Result is what the operation returned and how long it took.
type Result struct {
	Data          interface{}
	ExecutionTime time.Duration
}

// WithSpinner runs operation while a spinner shows message. With plain
// set the spinner is skipped, for pipes and CI.
func WithSpinner(message string, plain bool, operation OperationFunc, display DisplayFunc) error {
	if plain {
		start := time.Now()
		data, err := operation()
		if err != nil {
			return err
		}
		if display != nil {
			display(Result{Data: data, ExecutionTime: time.Since(start)})
		}
		return nil
	}

	program := tea.NewProgram(spinner.NewModel(message))

	go func() {
		start := time.Now()
		data, err := operation()
		if err != nil {
			program.Send(err)
			return
		}
		program.Send(spinner.ResultMsg{Result: Result{Data: data, ExecutionTime: time.Since(start)}})
	}()

	model, err := program.Run()
	if err != nil {
		return err
	}

	finalModel, ok := model.(spinner.Model)
	if !ok {
		return fmt.Errorf("program finished with invalid model")
	}

	if finalModel.HasError() {
		return finalModel.GetError()
	}

	if display != nil && finalModel.HasResult() {
		result, _ := finalModel.GetResult().(Result)
		display(result)
	}

	return nil
}
