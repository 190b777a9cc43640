package cmd

import (
	"fmt"
	"os"
	"strconv"

	"campus/internal/api"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// coursesCmd represents the courses command group
var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "Browse your courses",
	Long: `Browse the courses, lessons, and points of the signed-in user.

These commands require an active session; run campus auth login first.

Examples:
  campus courses list                  # List all courses
  campus courses lessons 42            # List lessons of course 42
  campus courses points 42             # Show points earned in course 42`,
}

// coursesListCmd represents the courses list command
var coursesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your courses",
	RunE:  runCoursesList,
}

// coursesLessonsCmd represents the courses lessons command
var coursesLessonsCmd = &cobra.Command{
	Use:   "lessons <course-id>",
	Short: "List the lessons of a course",
	Args:  cobra.ExactArgs(1),
	RunE:  runCoursesLessons,
}

// coursesPointsCmd represents the courses points command
var coursesPointsCmd = &cobra.Command{
	Use:   "points <course-id>",
	Short: "Show points earned in a course",
	Args:  cobra.ExactArgs(1),
	RunE:  runCoursesPoints,
}

func init() {
	rootCmd.AddCommand(coursesCmd)
	coursesCmd.AddCommand(coursesListCmd)
	coursesCmd.AddCommand(coursesLessonsCmd)
	coursesCmd.AddCommand(coursesPointsCmd)

	coursesCmd.PersistentFlags().StringVar(&authConfigPath, "config", "", "Configuration file (default is $HOME/.config/campus/config.yaml)")
}

// ensureCourseClient wires an API client on top of the session manager.
func ensureCourseClient() (*api.Client, error) {
	sess, err := ensureSession()
	if err != nil {
		return nil, err
	}

	return api.NewClient(api.ClientConfig{
		BaseURL: sess.cfg.Server.BaseURL,
		Tokens:  sess.manager,
	}), nil
}

// newCourseTable creates a table with the standard styling.
func newCourseTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	return t
}

func parseCourseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid course ID %q", arg)
	}
	return id, nil
}

func runCoursesList(cmd *cobra.Command, args []string) error {
	client, err := ensureCourseClient()
	if err != nil {
		return err
	}

	courses, err := client.ListCourses(cmd.Context())
	if err != nil {
		return err
	}

	if len(courses) == 0 {
		fmt.Println(text.FgYellow.Sprint("No courses found."))
		return nil
	}

	t := newCourseTable()
	t.AppendHeader(table.Row{"ID", "TITLE", "DESCRIPTION"})
	for _, course := range courses {
		t.AppendRow(table.Row{course.ID, course.Title, course.Description})
	}
	t.Render()

	return nil
}

func runCoursesLessons(cmd *cobra.Command, args []string) error {
	courseID, err := parseCourseID(args[0])
	if err != nil {
		return err
	}

	client, err := ensureCourseClient()
	if err != nil {
		return err
	}

	lessons, err := client.ListLessons(cmd.Context(), courseID)
	if err != nil {
		return err
	}

	if len(lessons) == 0 {
		fmt.Println(text.FgYellow.Sprint("No lessons found."))
		return nil
	}

	t := newCourseTable()
	t.AppendHeader(table.Row{"#", "ID", "TITLE"})
	for _, lesson := range lessons {
		t.AppendRow(table.Row{lesson.Position, lesson.ID, lesson.Title})
	}
	t.Render()

	return nil
}

func runCoursesPoints(cmd *cobra.Command, args []string) error {
	courseID, err := parseCourseID(args[0])
	if err != nil {
		return err
	}

	client, err := ensureCourseClient()
	if err != nil {
		return err
	}

	summary, err := client.GetPointsSummary(cmd.Context(), courseID)
	if err != nil {
		return err
	}

	fmt.Printf("Course %d: %.1f of %.1f points\n", summary.CourseID, summary.Earned, summary.Available)

	return nil
}
