package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"production-simulator/internal/engine"
	"production-simulator/internal/fsm"
	"production-simulator/internal/types"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newShellCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session: quantities, operations and estimates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return newShell(app, cmd.InOrStdin(), cmd.OutOrStdout()).run(cmd)
		},
	}
}

// errInputClosed 表示输入流结束，会话随之退出
var errInputClosed = errors.New("input closed")

// shell 是基于状态机的交互会话
// 每个状态对应原先的一个窗口，用户输入作为事件同步分发
type shell struct {
	app     *App
	in      *bufio.Scanner
	out     io.Writer
	machine *fsm.FSM
	inputs  map[types.Product]string // 模拟窗口中各产品的数量输入框
}

func newShell(app *App, in io.Reader, out io.Writer) *shell {
	s := &shell{
		app:     app,
		in:      bufio.NewScanner(in),
		out:     out,
		machine: fsm.NewFSM(),
		inputs:  make(map[types.Product]string),
	}
	s.machine.RegisterCallback(fsm.StateMainMenu, func(fsm.State) { s.printMainMenu() })
	s.machine.RegisterCallback(fsm.StateSimulation, func(from fsm.State) {
		// 从主菜单进入是新的模拟窗口，输入框清空
		if from == fsm.StateMainMenu {
			s.inputs = make(map[types.Product]string)
		}
		s.printTable()
		s.printSimulationHelp()
	})
	return s
}

func (s *shell) run(cmd *cobra.Command) error {
	s.printMainMenu()
	for s.machine.Current != fsm.StateExited {
		var err error
		switch s.machine.Current {
		case fsm.StateMainMenu:
			err = s.mainMenu()
		case fsm.StateSimulation:
			err = s.simulation(cmd)
		case fsm.StateAddOperation:
			err = s.addOperationDialog()
		}
		if errors.Is(err, errInputClosed) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// readLine 输出提示并读取一行输入
func (s *shell) readLine(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(s.in.Text()), nil
}

func (s *shell) printMainMenu() {
	fmt.Fprintln(s.out, "== Simulatore Produzione ==")
	fmt.Fprintln(s.out, "  1) Nuova Simulazione")
	fmt.Fprintln(s.out, "  2) Archivio Simulazioni")
	fmt.Fprintln(s.out, "  3) Impostazioni")
	fmt.Fprintln(s.out, "  4) Magazzino")
	fmt.Fprintln(s.out, "  q) Esci")
}

func (s *shell) mainMenu() error {
	line, err := s.readLine("> ")
	if err != nil {
		return err
	}
	switch line {
	case "1":
		return s.machine.Fire(fsm.EventNewSimulation)
	case "2", "3":
		fmt.Fprintln(s.out, "Info: Sviluppo in corso")
	case "4":
		fmt.Fprintln(s.out, "Magazzino: Macchinari e Materiali")
		for _, m := range s.app.Config.Machines {
			fmt.Fprintf(s.out, "  - %s\n", m)
		}
	case "q", "quit":
		return s.machine.Fire(fsm.EventQuit)
	case "":
	default:
		fmt.Fprintf(s.out, "comando sconosciuto: %q\n", line)
	}
	return nil
}

func (s *shell) printSimulationHelp() {
	fmt.Fprintln(s.out, "comandi: qty <n|prodotto> <quantità> | random | add | calc | table | back | quit")
	for i, p := range s.app.Config.Products {
		fmt.Fprintf(s.out, "  %d) %s = %q\n", i+1, p, s.inputs[p])
	}
}

func (s *shell) printTable() {
	table, err := s.app.Simulator.Table(nil)
	if err != nil {
		fmt.Fprintf(s.out, "errore: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "LISTA OPERAZIONI:")
	for _, p := range s.app.Simulator.Registry().Products() {
		printColumn(s.out, p, table[p])
	}
	fmt.Fprintln(s.out, "Operazione: Nome, Macchinario, Capacità massima, Range temporale, Tempo Random in range")
}

func (s *shell) simulation(cmd *cobra.Command) error {
	line, err := s.readLine("sim> ")
	if err != nil {
		return err
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "qty":
		if len(fields) < 2 {
			fmt.Fprintln(s.out, "uso: qty <n|prodotto> <quantità>")
			return nil
		}
		// 产品名含空格：最后一个字段是数量，其余是序号或产品名
		productText, input := fields[1], ""
		if len(fields) > 2 {
			productText = strings.Join(fields[1:len(fields)-1], " ")
			input = fields[len(fields)-1]
		}
		product, ok := s.pickProduct(productText)
		if !ok {
			fmt.Fprintf(s.out, "prodotto sconosciuto: %q\n", productText)
			return nil
		}
		// 保留原始文本，计算时统一校验
		s.inputs[product] = input
	case "random":
		rq := s.app.Config.RandomQuantity
		quantities, err := s.app.Simulator.Registry().GenerateRandomQuantities(rq.Min, rq.Max)
		if err != nil {
			return err
		}
		for p, q := range quantities {
			s.inputs[p] = strconv.Itoa(q)
		}
		s.printSimulationHelp()
	case "add":
		return s.machine.Fire(fsm.EventAddOperation)
	case "calc":
		s.calculate(cmd)
	case "table":
		s.printTable()
	case "back":
		return s.machine.Fire(fsm.EventBack)
	case "quit", "q":
		return s.machine.Fire(fsm.EventQuit)
	default:
		fmt.Fprintf(s.out, "comando sconosciuto: %q\n", fields[0])
	}
	return nil
}

func (s *shell) calculate(cmd *cobra.Command) {
	report, err := s.app.Simulator.Run(cmd.Context(), s.inputs, nil)
	var qErr *engine.QuantityError
	switch {
	case errors.As(err, &qErr):
		fmt.Fprintln(s.out, "Alert quantità non inserite: "+engine.QuantityNotice)
		return
	case err != nil:
		fmt.Fprintf(s.out, "errore: %v\n", err)
		return
	}
	fmt.Fprint(s.out, report.String())
	s.printTable()
}

// pickProduct 接受 1 起始的序号或完整的产品名
func (s *shell) pickProduct(text string) (types.Product, bool) {
	products := s.app.Config.Products
	if n, err := strconv.Atoi(text); err == nil {
		if n >= 1 && n <= len(products) {
			return products[n-1], true
		}
		return "", false
	}
	p := types.Product(text)
	return p, s.app.Simulator.Registry().HasProduct(p)
}

// addOperationDialog 依次询问新增工序的各个字段，输入 "annulla" 取消
func (s *shell) addOperationDialog() error {
	fmt.Fprintln(s.out, "== Aggiungi Operazione == (\"annulla\" per annullare)")

	ask := func(prompt string) (string, bool, error) {
		line, err := s.readLine(prompt)
		if err != nil {
			return "", false, err
		}
		if line == "annulla" {
			return "", false, s.machine.Fire(fsm.EventCancel)
		}
		return line, true, nil
	}

	for i, p := range s.app.Config.Products {
		fmt.Fprintf(s.out, "  %d) %s\n", i+1, p)
	}
	productText, ok, err := ask("Seleziona Prodotto: ")
	if !ok {
		return err
	}
	product, valid := s.pickProduct(productText)
	if !valid {
		fmt.Fprintf(s.out, "prodotto sconosciuto: %q\n", productText)
		return s.machine.Fire(fsm.EventCancel)
	}

	name, ok, err := ask("Nome Operazione: ")
	if !ok {
		return err
	}
	capacityText, ok, err := ask("Capacità massima: ")
	if !ok {
		return err
	}

	for i, m := range s.app.Config.Machines {
		fmt.Fprintf(s.out, "  %d) %s\n", i+1, m)
	}
	machineText, ok, err := ask("Seleziona Macchinario: ")
	if !ok {
		return err
	}
	machine := types.Machine(machineText)
	if n, convErr := strconv.Atoi(machineText); convErr == nil && n >= 1 && n <= len(s.app.Config.Machines) {
		machine = s.app.Config.Machines[n-1]
	}
	if !s.app.Simulator.Registry().HasMachine(machine) {
		fmt.Fprintf(s.out, "macchinario sconosciuto: %q\n", machineText)
		return s.machine.Fire(fsm.EventCancel)
	}

	mode, ok, err := ask("Tempo Determinato (d) o Range (r) [d]: ")
	if !ok {
		return err
	}
	minText, ok, err := ask("Tempo Minimo gg:hh:mm:ss: ")
	if !ok {
		return err
	}
	maxText := ""
	if mode == "r" {
		if maxText, ok, err = ask("Tempo Massimo gg:hh:mm:ss: "); !ok {
			return err
		}
	}
	saveText, ok, err := ask("Salva come Default? (s/n) [n]: ")
	if !ok {
		return err
	}

	capacity, convErr := strconv.Atoi(strings.TrimSpace(capacityText))
	if convErr != nil {
		fmt.Fprintf(s.out, "capacità non valida: %q\n", capacityText)
		return s.machine.Fire(fsm.EventCancel)
	}
	op, buildErr := buildOperation(string(product), name, string(machine), capacity, minText, maxText)
	if buildErr == nil {
		buildErr = s.app.Simulator.AddOperation(op, saveText == "s")
	}
	if buildErr != nil {
		fmt.Fprintf(s.out, "operazione non valida: %v\n", buildErr)
		return s.machine.Fire(fsm.EventCancel)
	}
	return s.machine.Fire(fsm.EventConfirm)
}
