package shell

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shrimpsizemoose/gradebook/internal/app"
)

const helpText = `Available commands:
  student add <rocket_id> <name>
  student edit <rocket_id> <name>
  student delete <rocket_id>
  student list [rocket_id|name]
  class add <class_id> <name>
  class edit <class_id> <name>
  class delete <class_id>
  class list [class_id|class_name]
  assignment add <class_id> <title> <due_date> <max_score> <Homework|Test>
  assignment edit <id> <title> <due_date> <max_score> <Homework|Test>
  assignment delete <id>
  assignment list <class_id> [title|due_date]
  grade submit <rocket_id> <assignment_id> <score> [class_id]
  grade list <class_id>
  grade average <class_id>
  report <rocket_id>
  export class <class_id> <path>
  export all <path>
  help
  quit

Arguments with spaces must be quoted:
  student add R12345678 "Ada Lovelace"
  assignment add CS101 "Homework 1" 2024-09-01 100 Homework`

type commandHandler func(ctx context.Context, args []string) error

func (s *Shell) routeCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"help":       s.handleHelp,
		"student":    s.handleStudent,
		"class":      s.handleClass,
		"assignment": s.handleAssignment,
		"grade":      s.handleGrade,
		"report":     s.handleReport,
		"export":     s.handleExport,
	}
	handler, found := commands[cmd]
	return handler, found
}

func usage(text string) error {
	return fmt.Errorf("usage: %s", text)
}

func optional(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func (s *Shell) handleHelp(_ context.Context, _ []string) error {
	fmt.Fprintln(s.out, helpText)
	return nil
}

func (s *Shell) handleStudent(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("student add|edit|delete|list ...")
	}

	switch args[0] {
	case "add":
		if len(args) != 3 {
			return usage("student add <rocket_id> <name>")
		}
		student, err := s.service.AddStudent(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Added student %s (%s)\n", student.Name, student.RocketID)
	case "edit":
		if len(args) != 3 {
			return usage("student edit <rocket_id> <name>")
		}
		if err := s.service.UpdateStudentName(ctx, args[1], args[2]); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Updated student %s\n", args[1])
	case "delete":
		if len(args) != 2 {
			return usage("student delete <rocket_id>")
		}
		if err := s.service.DeleteStudent(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Deleted student %s and their grades\n", args[1])
	case "list":
		students, err := s.service.ListStudents(ctx, optional(args, 1))
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(students))
		for _, st := range students {
			rows = append(rows, []string{st.RocketID, st.Name})
		}
		table(s.out, []string{"Rocket ID", "Name"}, rows)
	default:
		return fmt.Errorf("unknown subcommand: student %s", args[0])
	}
	return nil
}

func (s *Shell) handleClass(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("class add|edit|delete|list ...")
	}

	switch args[0] {
	case "add":
		if len(args) != 3 {
			return usage("class add <class_id> <name>")
		}
		class, err := s.service.AddClass(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Added class %s - %s\n", class.ClassID, class.ClassName)
	case "edit":
		if len(args) != 3 {
			return usage("class edit <class_id> <name>")
		}
		if err := s.service.UpdateClassName(ctx, args[1], args[2]); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Updated class %s\n", args[1])
	case "delete":
		if len(args) != 2 {
			return usage("class delete <class_id>")
		}
		if err := s.service.DeleteClass(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Deleted class %s with its assignments and grades\n", args[1])
	case "list":
		classes, err := s.service.ListClasses(ctx, optional(args, 1))
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(classes))
		for _, c := range classes {
			rows = append(rows, []string{c.ClassID, c.ClassName})
		}
		table(s.out, []string{"Class ID", "Name"}, rows)
	default:
		return fmt.Errorf("unknown subcommand: class %s", args[0])
	}
	return nil
}

func (s *Shell) handleAssignment(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("assignment add|edit|delete|list ...")
	}

	switch args[0] {
	case "add":
		if len(args) != 6 {
			return usage("assignment add <class_id> <title> <due_date> <max_score> <Homework|Test>")
		}
		assignment, err := s.service.AddAssignment(ctx, app.AssignmentInput{
			ClassID:  args[1],
			Title:    args[2],
			DueDate:  args[3],
			MaxScore: args[4],
			Type:     args[5],
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Added assignment %d: %s for %s\n", assignment.ID, assignment.Title, assignment.ClassID)
	case "edit":
		if len(args) != 6 {
			return usage("assignment edit <id> <title> <due_date> <max_score> <Homework|Test>")
		}
		err := s.service.UpdateAssignment(ctx, args[1], app.AssignmentInput{
			Title:    args[2],
			DueDate:  args[3],
			MaxScore: args[4],
			Type:     args[5],
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Updated assignment %s\n", args[1])
	case "delete":
		if len(args) != 2 {
			return usage("assignment delete <id>")
		}
		if err := s.service.DeleteAssignment(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Deleted assignment %s\n", args[1])
	case "list":
		if len(args) < 2 {
			return usage("assignment list <class_id> [title|due_date]")
		}
		assignments, err := s.service.ListAssignments(ctx, args[1], optional(args, 2))
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(assignments))
		for _, a := range assignments {
			rows = append(rows, []string{
				strconv.FormatInt(a.ID, 10),
				a.Title,
				a.DueDate,
				strconv.Itoa(a.MaxScore),
				string(a.Type),
			})
		}
		table(s.out, []string{"ID", "Title", "Due", "Max", "Type"}, rows)
	default:
		return fmt.Errorf("unknown subcommand: assignment %s", args[0])
	}
	return nil
}

func (s *Shell) handleGrade(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("grade submit|list|average ...")
	}

	switch args[0] {
	case "submit":
		if len(args) != 4 && len(args) != 5 {
			return usage("grade submit <rocket_id> <assignment_id> <score> [class_id]")
		}
		grade, err := s.service.SubmitGrade(ctx, app.GradeInput{
			RocketID:     args[1],
			AssignmentID: args[2],
			Score:        args[3],
			ClassID:      optional(args, 4),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Grade submitted: %s, assignment %d, class %s, score %d\n",
			grade.RocketID, grade.AssignmentID, grade.ClassID, grade.Score)
	case "list":
		if len(args) != 2 {
			return usage("grade list <class_id>")
		}
		var rows [][]string
		for row, err := range s.service.ClassGrades(ctx, args[1]) {
			if err != nil {
				return err
			}
			rows = append(rows, []string{row.RocketID, row.Name, row.Title, strconv.Itoa(row.Score)})
		}
		table(s.out, []string{"Rocket ID", "Name", "Assignment", "Score"}, rows)
	case "average":
		if len(args) != 2 {
			return usage("grade average <class_id>")
		}
		avg, err := s.service.ClassAverage(ctx, args[1])
		if err != nil {
			return err
		}
		if avg == nil {
			fmt.Fprintf(s.out, "No grades for %s\n", args[1])
			return nil
		}
		fmt.Fprintf(s.out, "%s average: %.2f%% = %s (GPA %.1f) over %d grades\n",
			avg.ClassID, avg.Average, avg.Letter, avg.GPA, avg.Count)
	default:
		return fmt.Errorf("unknown subcommand: grade %s", args[0])
	}
	return nil
}

func (s *Shell) handleReport(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("report <rocket_id>")
	}
	report, err := s.service.StudentReport(ctx, args[0])
	if err != nil {
		return err
	}
	renderStudentReport(s.out, report)
	return nil
}

func (s *Shell) handleExport(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("export class <class_id> <path> | export all <path>")
	}

	var (
		path string
		n    int
		err  error
	)
	switch strings.ToLower(args[0]) {
	case "class":
		if len(args) != 3 {
			return usage("export class <class_id> <path>")
		}
		path, n, err = s.service.ExportClassToFile(ctx, args[1], args[2])
	case "all":
		if len(args) != 2 {
			return usage("export all <path>")
		}
		path, n, err = s.service.ExportAllToFile(ctx, args[1])
	default:
		return fmt.Errorf("unknown subcommand: export %s", args[0])
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Exported %d rows to %s\n", n, path)
	return nil
}
