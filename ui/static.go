package ui

const uiHeader = `
<html>
	<head>

	<style>
		.buttons {
			margin-bottom: 1rem;
		}
		button {
			background-color: black;
			color: white;
			border: 1px solid black;
			padding: 8px;
			font-size: 16px;
			cursor: pointer;
		}
		table {
			border-collapse: collapse;
			width: 100%;
		}
		th, td {
			border: 1px solid black;
			padding: 8px;
			text-align: left;
		}
		th {
			background-color: black;
			color: white;
		}
	</style>
		<title>vkerneld dashboard</title>
	</head>
	<body>
`

const uiFooter = `
	</body>
</html>
`

const viewProcessDetails = `
		<div class="container">
		<div class="buttons">
			<a href="/"><button>All Processes</button></a>
		</div>
		<table>
            <tr>
                <th>Field</th>
                <th>Value</th>
            </tr>
			{{range $idx, $value := . | pDeets }}
            <tr>
                <td>{{ $value.Field }}</td>
                <td>{{ $value.Value }}</td>
            </tr>
			{{ end }}
			</table>
		</div>
`

const allProcessesView = `
		<div class="container">
		<div class="status">
		 <p>Last refreshed: {{ .LastRefresh }}</p>
		 <p>Scheduler ticks: {{ .Ticks }}</p>
		</div>
		<div class="buttons">
			<a href="/tick"><button>Advance One Tick</button></a>
			<a href="/memory"><button>Memory Pool</button></a>
		</div>
		<table>
            <tr>
                <th>PID</th>
                <th>Name</th>
                <th>State</th>
                <th>Priority</th>
                <th>Persistent</th>
            </tr>
			{{range .PS}}
            <tr>
                <td><a href="/process/{{.PID}}">{{.PID}}</a></td>
                <td>{{.Name}}</td>
                <td>{{.State}}</td>
                <td>{{.Priority}}</td>
                <td>{{.Persistent}}</td>
            </tr>
            {{end}}
			</table>
		</div>
`

const memoryView = `
		<div class="container">
		<div class="buttons">
			<a href="/"><button>All Processes</button></a>
		</div>
		<div class="status">
		 <p>Used: {{ .Used }} / {{ .Total }} bytes (free: {{ .Free }})</p>
		</div>
		<table>
            <tr>
                <th>Token</th>
                <th>Owner PID</th>
                <th>Size</th>
            </tr>
			{{range .Allocations}}
            <tr>
                <td>{{.Token}}</td>
                <td>{{.Owner}}</td>
                <td>{{.Size}}</td>
            </tr>
            {{end}}
			</table>
		</div>
`

const errorView = `
		<div class="container">
			<div class="status">
			<h1>Failed creating requested page.</h1>
			<p>Error details {{ . }}</p>
			</div>
		</div>
`
